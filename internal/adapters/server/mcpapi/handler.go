// Package mcpapi provides a stateless MCP streamable-HTTP adapter over the
// board read and task write surfaces.
package mcpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/ChrisCotton/kanban-mbb-app-sub000/internal/adapters/server/common"
)

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
}

// NewHandler builds one stateless MCP adapter. The board read surface is
// required; task write tools register only when a write surface is present,
// so a read-only serve process simply exposes fewer tools.
func NewHandler(cfg Config, board common.BoardReader, tasks common.TaskWriter) (*Handler, error) {
	if board == nil {
		return nil, fmt.Errorf("board read service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerBoardTools(mcpSrv, board)
	if tasks != nil {
		registerTaskTools(mcpSrv, tasks)
		registerBulkTools(mcpSrv, tasks)
	}

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

// normalizeConfig applies deterministic defaults to MCP adapter config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "mbb"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	if !strings.HasPrefix(cfg.EndpointPath, "/") {
		cfg.EndpointPath = "/" + cfg.EndpointPath
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

// registerBoardTools registers the read-side board tools.
func registerBoardTools(srv *mcpserver.MCPServer, board common.BoardReader) {
	srv.AddTool(
		mcp.NewTool(
			"mbb.capture_board",
			mcp.WithDescription("Return the full board snapshot: all four status columns with their ordered task sequences."),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			capture, err := board.CaptureBoard(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(capture)
			if err != nil {
				return nil, fmt.Errorf("encode capture_board result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"mbb.search_tasks",
			mcp.WithDescription("Search tasks; the result keeps the board capture shape (grouped, ordered columns)."),
			mcp.WithString("query", mcp.Description("Case-insensitive text matched against title and description")),
			mcp.WithArray("statuses", mcp.Description("Optional status filter"), mcp.WithStringItems()),
			mcp.WithArray("priorities", mcp.Description("Optional priority filter"), mcp.WithStringItems()),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			capture, err := board.SearchTasks(ctx, common.SearchRequest{
				Query:      req.GetString("query", ""),
				Statuses:   req.GetStringSlice("statuses", nil),
				Priorities: req.GetStringSlice("priorities", nil),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(capture)
			if err != nil {
				return nil, fmt.Errorf("encode search_tasks result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"mbb.get_task",
			mcp.WithDescription("Return one task by id."),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Task identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			taskID, err := req.RequireString("task_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			task, err := board.GetTask(ctx, taskID)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(task)
			if err != nil {
				return nil, fmt.Errorf("encode get_task result: %w", err)
			}
			return result, nil
		},
	)
}

// registerTaskTools registers the single-task write tools.
func registerTaskTools(srv *mcpserver.MCPServer, tasks common.TaskWriter) {
	srv.AddTool(
		mcp.NewTool(
			"mbb.create_task",
			mcp.WithDescription("Create one task appended at the end of its status column."),
			mcp.WithString("title", mcp.Required(), mcp.Description("Task title")),
			mcp.WithString("status", mcp.Description("Destination column (defaults to backlog)"), mcp.Enum(common.SupportedStatuses()...)),
			mcp.WithString("description", mcp.Description("Optional description")),
			mcp.WithString("priority", mcp.Description("Priority (defaults to medium)"), mcp.Enum(common.SupportedPriorities()...)),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			title, err := req.RequireString("title")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			task, err := tasks.CreateTask(ctx, common.CreateTaskRequest{
				Title:       title,
				Status:      req.GetString("status", ""),
				Description: req.GetString("description", ""),
				Priority:    req.GetString("priority", ""),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(task)
			if err != nil {
				return nil, fmt.Errorf("encode create_task result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"mbb.update_task",
			mcp.WithDescription("Apply a field-scoped partial update to one task; omitted fields stay untouched."),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Task identifier")),
			mcp.WithString("title", mcp.Description("New title")),
			mcp.WithString("description", mcp.Description("New description")),
			mcp.WithString("priority", mcp.Description("New priority"), mcp.Enum(common.SupportedPriorities()...)),
			mcp.WithString("status", mcp.Description("New status; the task appends at the destination column end"), mcp.Enum(common.SupportedStatuses()...)),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			taskID, err := req.RequireString("task_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			update := common.UpdateTaskRequest{}
			if v := req.GetString("title", ""); v != "" {
				update.Title = &v
			}
			if v := req.GetString("description", ""); v != "" {
				update.Description = &v
			}
			if v := req.GetString("priority", ""); v != "" {
				update.Priority = &v
			}
			if v := req.GetString("status", ""); v != "" {
				update.Status = &v
			}
			task, err := tasks.UpdateTask(ctx, taskID, update)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(task)
			if err != nil {
				return nil, fmt.Errorf("encode update_task result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"mbb.move_task",
			mcp.WithDescription("Move one task to a column position. The index is 0-based and counts slots in the destination column after the task leaves its source column."),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Task identifier")),
			mcp.WithString("status", mcp.Required(), mcp.Description("Destination column"), mcp.Enum(common.SupportedStatuses()...)),
			mcp.WithNumber("index", mcp.Description("Insertion position; out-of-range values clamp")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			taskID, err := req.RequireString("task_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			status, err := req.RequireString("status")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			task, err := tasks.MoveTask(ctx, taskID, common.MoveTaskRequest{
				Status: status,
				Index:  req.GetInt("index", 0),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(task)
			if err != nil {
				return nil, fmt.Errorf("encode move_task result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"mbb.delete_task",
			mcp.WithDescription("Delete one task; the store closes the order gap it leaves."),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Task identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			taskID, err := req.RequireString("task_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if err := tasks.DeleteTask(ctx, taskID); err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"deleted": true,
				"task_id": taskID,
			})
			if err != nil {
				return nil, fmt.Errorf("encode delete_task result: %w", err)
			}
			return result, nil
		},
	)
}

// toolResultFromError maps service errors into MCP-visible tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return mcp.NewToolResultError("unknown error")
	case errors.Is(err, common.ErrInvalidRequest):
		return mcp.NewToolResultError("invalid_request: " + err.Error())
	case errors.Is(err, common.ErrNotFound):
		return mcp.NewToolResultError("not_found: " + err.Error())
	case errors.Is(err, common.ErrWritesDisabled):
		return mcp.NewToolResultError("not_implemented: " + err.Error())
	default:
		return mcp.NewToolResultError("internal_error: " + err.Error())
	}
}
