package mcpapi

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/ChrisCotton/kanban-mbb-app-sub000/internal/adapters/server/common"
)

// registerBulkTools registers the multi-task batch tools. Each batch is
// sequential best-effort: one failing id never aborts the remaining ids, and
// the outcome reports attempted/succeeded counts plus per-id failures.
func registerBulkTools(srv *mcpserver.MCPServer, tasks common.TaskWriter) {
	srv.AddTool(
		mcp.NewTool(
			"mbb.bulk_move",
			mcp.WithDescription("Move several tasks to the end of one destination column, in the given id order."),
			mcp.WithArray("task_ids", mcp.Required(), mcp.Description("Task ids in apply order"), mcp.WithStringItems()),
			mcp.WithString("status", mcp.Required(), mcp.Description("Destination column"), mcp.Enum(common.SupportedStatuses()...)),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			status, err := req.RequireString("status")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			outcome, err := tasks.BulkMove(ctx, common.BulkMoveRequest{
				TaskIDs: req.GetStringSlice("task_ids", nil),
				Status:  status,
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(outcome)
			if err != nil {
				return nil, fmt.Errorf("encode bulk_move result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"mbb.bulk_delete",
			mcp.WithDescription("Delete several tasks; ids that fail are reported without aborting the batch."),
			mcp.WithArray("task_ids", mcp.Required(), mcp.Description("Task ids in apply order"), mcp.WithStringItems()),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			outcome, err := tasks.BulkDelete(ctx, common.BulkDeleteRequest{
				TaskIDs: req.GetStringSlice("task_ids", nil),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(outcome)
			if err != nil {
				return nil, fmt.Errorf("encode bulk_delete result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"mbb.bulk_set_priority",
			mcp.WithDescription("Set one priority on several tasks without changing their board positions."),
			mcp.WithArray("task_ids", mcp.Required(), mcp.Description("Task ids in apply order"), mcp.WithStringItems()),
			mcp.WithString("priority", mcp.Required(), mcp.Description("Priority applied to every id"), mcp.Enum(common.SupportedPriorities()...)),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			priority, err := req.RequireString("priority")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			outcome, err := tasks.BulkSetPriority(ctx, common.BulkPriorityRequest{
				TaskIDs:  req.GetStringSlice("task_ids", nil),
				Priority: priority,
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(outcome)
			if err != nil {
				return nil, fmt.Errorf("encode bulk_set_priority result: %w", err)
			}
			return result, nil
		},
	)
}
