package mcpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ChrisCotton/kanban-mbb-app-sub000/internal/adapters/server/common"
)

// stubBoardReader provides deterministic board read responses for MCP tool tests.
type stubBoardReader struct {
	capture    common.BoardCapture
	task       common.TaskPayload
	captureErr error
	searchErr  error
	getErr     error
	lastSearch common.SearchRequest
	lastTaskID string
}

func (s *stubBoardReader) CaptureBoard(context.Context) (common.BoardCapture, error) {
	if s.captureErr != nil {
		return common.BoardCapture{}, s.captureErr
	}
	return s.capture, nil
}

func (s *stubBoardReader) SearchTasks(_ context.Context, req common.SearchRequest) (common.BoardCapture, error) {
	s.lastSearch = req
	if s.searchErr != nil {
		return common.BoardCapture{}, s.searchErr
	}
	return s.capture, nil
}

func (s *stubBoardReader) GetTask(_ context.Context, taskID string) (common.TaskPayload, error) {
	s.lastTaskID = taskID
	if s.getErr != nil {
		return common.TaskPayload{}, s.getErr
	}
	return s.task, nil
}

// stubTaskWriter provides deterministic write responses for MCP tool tests.
type stubTaskWriter struct {
	task         common.TaskPayload
	outcome      common.BulkOutcome
	createErr    error
	updateErr    error
	moveErr      error
	deleteErr    error
	bulkErr      error
	lastCreate   common.CreateTaskRequest
	lastUpdate   common.UpdateTaskRequest
	lastMove     common.MoveTaskRequest
	lastTaskID   string
	lastBulkMove common.BulkMoveRequest
	lastBulkDel  common.BulkDeleteRequest
	lastBulkPri  common.BulkPriorityRequest
}

func (s *stubTaskWriter) CreateTask(_ context.Context, req common.CreateTaskRequest) (common.TaskPayload, error) {
	s.lastCreate = req
	if s.createErr != nil {
		return common.TaskPayload{}, s.createErr
	}
	return s.task, nil
}

func (s *stubTaskWriter) UpdateTask(_ context.Context, taskID string, req common.UpdateTaskRequest) (common.TaskPayload, error) {
	s.lastTaskID = taskID
	s.lastUpdate = req
	if s.updateErr != nil {
		return common.TaskPayload{}, s.updateErr
	}
	return s.task, nil
}

func (s *stubTaskWriter) MoveTask(_ context.Context, taskID string, req common.MoveTaskRequest) (common.TaskPayload, error) {
	s.lastTaskID = taskID
	s.lastMove = req
	if s.moveErr != nil {
		return common.TaskPayload{}, s.moveErr
	}
	return s.task, nil
}

func (s *stubTaskWriter) DeleteTask(_ context.Context, taskID string) error {
	s.lastTaskID = taskID
	return s.deleteErr
}

func (s *stubTaskWriter) BulkMove(_ context.Context, req common.BulkMoveRequest) (common.BulkOutcome, error) {
	s.lastBulkMove = req
	if s.bulkErr != nil {
		return common.BulkOutcome{}, s.bulkErr
	}
	return s.outcome, nil
}

func (s *stubTaskWriter) BulkDelete(_ context.Context, req common.BulkDeleteRequest) (common.BulkOutcome, error) {
	s.lastBulkDel = req
	if s.bulkErr != nil {
		return common.BulkOutcome{}, s.bulkErr
	}
	return s.outcome, nil
}

func (s *stubTaskWriter) BulkSetPriority(_ context.Context, req common.BulkPriorityRequest) (common.BulkOutcome, error) {
	s.lastBulkPri = req
	if s.bulkErr != nil {
		return common.BulkOutcome{}, s.bulkErr
	}
	return s.outcome, nil
}

// jsonRPCResponse models minimal JSON-RPC response fields used in MCP adapter tests.
type jsonRPCResponse struct {
	ID     float64        `json:"id"`
	Result map[string]any `json:"result"`
}

// callToolRequest constructs one deterministic tools/call JSON-RPC request payload.
func callToolRequest(id int, toolName string, arguments map[string]any) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  "tools/call",
		"params": map[string]any{
			"name":      toolName,
			"arguments": arguments,
		},
	}
}

// toolResultText decodes the first text entry from one tool-call result payload.
func toolResultText(t *testing.T, result map[string]any) string {
	t.Helper()

	contentRaw, ok := result["content"].([]any)
	if !ok || len(contentRaw) == 0 {
		t.Fatalf("content missing in tool result: %#v", result)
	}
	first, ok := contentRaw[0].(map[string]any)
	if !ok {
		t.Fatalf("first content entry has unexpected type: %#v", contentRaw[0])
	}
	text, ok := first["text"].(string)
	if !ok {
		t.Fatalf("content text missing in tool result: %#v", first)
	}
	return text
}

// toolResultStructured decodes structuredContent as one map for stable assertions.
func toolResultStructured(t *testing.T, result map[string]any) map[string]any {
	t.Helper()
	structured, ok := result["structuredContent"].(map[string]any)
	if !ok {
		t.Fatalf("structuredContent missing in tool result: %#v", result)
	}
	return structured
}

// postJSONRPC sends one JSON-RPC payload and decodes the response body.
func postJSONRPC(t *testing.T, client *http.Client, url string, payload any) (*http.Response, jsonRPCResponse) {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	var decoded jsonRPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if err := resp.Body.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return resp, decoded
}

// initializeRequest builds a deterministic MCP initialize request payload.
func initializeRequest() map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "initialize",
		"params": map[string]any{
			"protocolVersion": mcp.LATEST_PROTOCOL_VERSION,
			"clientInfo": map[string]any{
				"name":    "mbb-test",
				"version": "1.0.0",
			},
		},
	}
}

// callToolResultText decodes the first textual content block from a CallToolResult.
func callToolResultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil {
		t.Fatalf("result = nil, want non-nil")
	}
	if len(result.Content) == 0 {
		t.Fatalf("result content is empty")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content[0] has unexpected type %T", result.Content[0])
	}
	return text.Text
}

// listToolNames fetches the tool list over JSON-RPC and returns the names.
func listToolNames(t *testing.T, server *httptest.Server) []string {
	t.Helper()
	_, _ = postJSONRPC(t, server.Client(), server.URL, initializeRequest())
	_, toolsResp := postJSONRPC(t, server.Client(), server.URL, map[string]any{
		"jsonrpc": "2.0",
		"id":      2,
		"method":  "tools/list",
	})
	toolsRaw, ok := toolsResp.Result["tools"].([]any)
	if !ok {
		t.Fatalf("tools list payload missing tools: %#v", toolsResp.Result)
	}
	toolNames := make([]string, 0, len(toolsRaw))
	for _, toolRaw := range toolsRaw {
		toolMap, ok := toolRaw.(map[string]any)
		if !ok {
			continue
		}
		name, _ := toolMap["name"].(string)
		toolNames = append(toolNames, name)
	}
	return toolNames
}

// boardFixture builds one capture with all four columns used across tool-call tests.
func boardFixture(now time.Time) common.BoardCapture {
	return common.BoardCapture{
		CapturedAt: now,
		TotalTasks: 2,
		Columns: []common.BoardColumn{
			{Status: "backlog", Label: "Backlog", Tasks: []common.TaskPayload{
				{ID: "t1", Status: "backlog", OrderIndex: 0, Title: "Draft launch plan", Priority: "medium", CreatedAt: now, UpdatedAt: now},
			}},
			{Status: "todo", Label: "To Do", Tasks: []common.TaskPayload{
				{ID: "t2", Status: "todo", OrderIndex: 0, Title: "Review schema", Priority: "high", CreatedAt: now, UpdatedAt: now},
			}},
			{Status: "doing", Label: "Doing", Tasks: []common.TaskPayload{}},
			{Status: "done", Label: "Done", Tasks: []common.TaskPayload{}},
		},
	}
}

// TestHandlerUsesStatelessTransport verifies MCP transport does not issue session ids.
func TestHandlerUsesStatelessTransport(t *testing.T) {
	handler, err := NewHandler(Config{}, &stubBoardReader{}, nil)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}

	server := httptest.NewServer(handler)
	defer server.Close()

	resp, decoded := postJSONRPC(t, server.Client(), server.URL, initializeRequest())
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if decoded.ID != 1 {
		t.Fatalf("id = %v, want 1", decoded.ID)
	}
	if got := resp.Header.Get("Mcp-Session-Id"); got != "" {
		t.Fatalf("Mcp-Session-Id header = %q, want empty (stateless transport)", got)
	}
}

// TestHandlerRegistersReadToolsOnly verifies a read-only handler hides write tools.
func TestHandlerRegistersReadToolsOnly(t *testing.T) {
	handler, err := NewHandler(Config{}, &stubBoardReader{}, nil)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}

	server := httptest.NewServer(handler)
	defer server.Close()
	toolNames := listToolNames(t, server)

	for _, required := range []string{"mbb.capture_board", "mbb.search_tasks", "mbb.get_task"} {
		if !slices.Contains(toolNames, required) {
			t.Fatalf("tool list missing %q: %#v", required, toolNames)
		}
	}
	for _, writeTool := range []string{"mbb.create_task", "mbb.move_task", "mbb.bulk_move"} {
		if slices.Contains(toolNames, writeTool) {
			t.Fatalf("unexpected write tool %q without write surface: %#v", writeTool, toolNames)
		}
	}
}

// TestHandlerRegistersWriteToolsWhenAvailable verifies the full tool surface.
func TestHandlerRegistersWriteToolsWhenAvailable(t *testing.T) {
	handler, err := NewHandler(Config{}, &stubBoardReader{}, &stubTaskWriter{})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}

	server := httptest.NewServer(handler)
	defer server.Close()
	toolNames := listToolNames(t, server)

	for _, required := range []string{
		"mbb.capture_board",
		"mbb.search_tasks",
		"mbb.get_task",
		"mbb.create_task",
		"mbb.update_task",
		"mbb.move_task",
		"mbb.delete_task",
		"mbb.bulk_move",
		"mbb.bulk_delete",
		"mbb.bulk_set_priority",
	} {
		if !slices.Contains(toolNames, required) {
			t.Fatalf("tool list missing %q: %#v", required, toolNames)
		}
	}
}

// TestHandlerCaptureBoardToolCall verifies tool-call wiring returns structured column data.
func TestHandlerCaptureBoardToolCall(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	board := &stubBoardReader{capture: boardFixture(now)}
	handler, err := NewHandler(Config{}, board, nil)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}

	server := httptest.NewServer(handler)
	defer server.Close()
	_, _ = postJSONRPC(t, server.Client(), server.URL, initializeRequest())

	_, callResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(3, "mbb.capture_board", map[string]any{}))
	structured := toolResultStructured(t, callResp.Result)
	if got, _ := structured["total_tasks"].(float64); got != 2 {
		t.Fatalf("total_tasks = %v, want 2", structured["total_tasks"])
	}
	columnsRaw, ok := structured["columns"].([]any)
	if !ok || len(columnsRaw) != 4 {
		t.Fatalf("columns = %#v, want four entries", structured["columns"])
	}
}

// TestHandlerSearchTasksToolCall verifies search arguments reach the read service.
func TestHandlerSearchTasksToolCall(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	board := &stubBoardReader{capture: boardFixture(now)}
	handler, err := NewHandler(Config{}, board, nil)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}

	server := httptest.NewServer(handler)
	defer server.Close()
	_, _ = postJSONRPC(t, server.Client(), server.URL, initializeRequest())

	_, callResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(3, "mbb.search_tasks", map[string]any{
		"query":      "schema",
		"statuses":   []string{"todo", "doing"},
		"priorities": []string{"high"},
	}))
	structured := toolResultStructured(t, callResp.Result)
	if _, ok := structured["columns"].([]any); !ok {
		t.Fatalf("columns missing in search result: %#v", structured)
	}
	if board.lastSearch.Query != "schema" {
		t.Fatalf("query = %q, want schema", board.lastSearch.Query)
	}
	if !slices.Equal(board.lastSearch.Statuses, []string{"todo", "doing"}) {
		t.Fatalf("statuses = %#v, want [todo doing]", board.lastSearch.Statuses)
	}
	if !slices.Equal(board.lastSearch.Priorities, []string{"high"}) {
		t.Fatalf("priorities = %#v, want [high]", board.lastSearch.Priorities)
	}
}

// TestHandlerGetTaskToolCall verifies get_task wiring and its required argument.
func TestHandlerGetTaskToolCall(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	board := &stubBoardReader{
		task: common.TaskPayload{ID: "t2", Status: "todo", Title: "Review schema", Priority: "high", CreatedAt: now, UpdatedAt: now},
	}
	handler, err := NewHandler(Config{}, board, nil)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}

	server := httptest.NewServer(handler)
	defer server.Close()
	_, _ = postJSONRPC(t, server.Client(), server.URL, initializeRequest())

	_, callResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(3, "mbb.get_task", map[string]any{
		"task_id": "t2",
	}))
	structured := toolResultStructured(t, callResp.Result)
	if got, _ := structured["id"].(string); got != "t2" {
		t.Fatalf("id = %q, want t2", got)
	}
	if board.lastTaskID != "t2" {
		t.Fatalf("task_id = %q, want t2", board.lastTaskID)
	}

	_, missingResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(4, "mbb.get_task", map[string]any{}))
	if isError, _ := missingResp.Result["isError"].(bool); !isError {
		t.Fatalf("isError = %v, want true", missingResp.Result["isError"])
	}
	if got := toolResultText(t, missingResp.Result); !strings.Contains(got, `"task_id"`) {
		t.Fatalf("error text = %q, want required task_id message", got)
	}
}

// TestHandlerTaskWriteToolCalls verifies write tools map arguments onto service requests.
func TestHandlerTaskWriteToolCalls(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	writer := &stubTaskWriter{
		task: common.TaskPayload{ID: "t9", Status: "doing", Title: "Wire importer", Priority: "high", CreatedAt: now, UpdatedAt: now},
	}
	handler, err := NewHandler(Config{}, &stubBoardReader{}, writer)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}

	server := httptest.NewServer(handler)
	defer server.Close()
	_, _ = postJSONRPC(t, server.Client(), server.URL, initializeRequest())

	_, createResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(2, "mbb.create_task", map[string]any{
		"title":    "Wire importer",
		"status":   "doing",
		"priority": "high",
	}))
	createStructured := toolResultStructured(t, createResp.Result)
	if got, _ := createStructured["id"].(string); got != "t9" {
		t.Fatalf("created id = %q, want t9", got)
	}
	if writer.lastCreate.Title != "Wire importer" || writer.lastCreate.Status != "doing" || writer.lastCreate.Priority != "high" {
		t.Fatalf("create request = %+v", writer.lastCreate)
	}

	_, updateResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(3, "mbb.update_task", map[string]any{
		"task_id":  "t9",
		"title":    "Wire snapshot importer",
		"priority": "medium",
	}))
	if isError, _ := updateResp.Result["isError"].(bool); isError {
		t.Fatalf("update isError = true: %#v", updateResp.Result)
	}
	if writer.lastTaskID != "t9" {
		t.Fatalf("update task_id = %q, want t9", writer.lastTaskID)
	}
	if writer.lastUpdate.Title == nil || *writer.lastUpdate.Title != "Wire snapshot importer" {
		t.Fatalf("update title = %#v", writer.lastUpdate.Title)
	}
	if writer.lastUpdate.Priority == nil || *writer.lastUpdate.Priority != "medium" {
		t.Fatalf("update priority = %#v", writer.lastUpdate.Priority)
	}
	if writer.lastUpdate.Status != nil || writer.lastUpdate.Description != nil {
		t.Fatalf("update touched omitted fields: %+v", writer.lastUpdate)
	}

	_, moveResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(4, "mbb.move_task", map[string]any{
		"task_id": "t9",
		"status":  "done",
		"index":   2,
	}))
	if isError, _ := moveResp.Result["isError"].(bool); isError {
		t.Fatalf("move isError = true: %#v", moveResp.Result)
	}
	if writer.lastMove.Status != "done" || writer.lastMove.Index != 2 {
		t.Fatalf("move request = %+v", writer.lastMove)
	}

	_, deleteResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(5, "mbb.delete_task", map[string]any{
		"task_id": "t9",
	}))
	deleteStructured := toolResultStructured(t, deleteResp.Result)
	if deleted, _ := deleteStructured["deleted"].(bool); !deleted {
		t.Fatalf("deleted = %v, want true", deleteStructured["deleted"])
	}
}

// TestNewHandlerRequiresBoardReader verifies read-surface dependency enforcement.
func TestNewHandlerRequiresBoardReader(t *testing.T) {
	handler, err := NewHandler(Config{}, nil, nil)
	if err == nil {
		t.Fatalf("NewHandler() error = nil, want non-nil")
	}
	if handler != nil {
		t.Fatalf("handler = %#v, want nil", handler)
	}
}

// TestNormalizeConfig verifies deterministic config defaults and path normalization.
func TestNormalizeConfig(t *testing.T) {
	cases := []struct {
		name string
		in   Config
		want Config
	}{
		{
			name: "defaults",
			in:   Config{},
			want: Config{
				ServerName:    "mbb",
				ServerVersion: "dev",
				EndpointPath:  "/mcp",
			},
		},
		{
			name: "trimmed values and slash prefix",
			in: Config{
				ServerName:    " mbb-server ",
				ServerVersion: " v1.2.3 ",
				EndpointPath:  "custom/path",
			},
			want: Config{
				ServerName:    "mbb-server",
				ServerVersion: "v1.2.3",
				EndpointPath:  "/custom/path",
			},
		},
		{
			name: "endpoint trim of repeated slashes",
			in: Config{
				ServerName:    "mbb",
				ServerVersion: "dev",
				EndpointPath:  "///mcp///",
			},
			want: Config{
				ServerName:    "mbb",
				ServerVersion: "dev",
				EndpointPath:  "/mcp",
			},
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeConfig(tt.in)
			if got.ServerName != tt.want.ServerName {
				t.Fatalf("ServerName = %q, want %q", got.ServerName, tt.want.ServerName)
			}
			if got.ServerVersion != tt.want.ServerVersion {
				t.Fatalf("ServerVersion = %q, want %q", got.ServerVersion, tt.want.ServerVersion)
			}
			if got.EndpointPath != tt.want.EndpointPath {
				t.Fatalf("EndpointPath = %q, want %q", got.EndpointPath, tt.want.EndpointPath)
			}
		})
	}
}

// TestHandlerServeHTTPUnavailable verifies nil handler paths fail closed with 503.
func TestHandlerServeHTTPUnavailable(t *testing.T) {
	cases := []struct {
		name    string
		handler *Handler
	}{
		{
			name:    "nil receiver",
			handler: nil,
		},
		{
			name:    "missing inner http handler",
			handler: &Handler{},
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewBufferString(`{}`))
			rec := httptest.NewRecorder()

			tt.handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusServiceUnavailable {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
			}
			if !strings.Contains(rec.Body.String(), "mcp handler unavailable") {
				t.Fatalf("body = %q, want mcp handler unavailable", rec.Body.String())
			}
		})
	}
}

// TestToolResultFromErrorMapping verifies deterministic error-to-tool-result mapping.
func TestToolResultFromErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantPrefix string
	}{
		{
			name:       "nil error",
			err:        nil,
			wantPrefix: "unknown error",
		},
		{
			name:       "invalid request",
			err:        errors.Join(common.ErrInvalidRequest, errors.New("bad priority")),
			wantPrefix: "invalid_request:",
		},
		{
			name:       "not found",
			err:        errors.Join(common.ErrNotFound, errors.New("missing")),
			wantPrefix: "not_found:",
		},
		{
			name:       "writes disabled",
			err:        errors.Join(common.ErrWritesDisabled, errors.New("read-only")),
			wantPrefix: "not_implemented:",
		},
		{
			name:       "internal",
			err:        errors.New("boom"),
			wantPrefix: "internal_error:",
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			result := toolResultFromError(tt.err)
			if !result.IsError {
				t.Fatalf("IsError = false, want true")
			}
			if got := callToolResultText(t, result); !strings.HasPrefix(got, tt.wantPrefix) {
				t.Fatalf("text = %q, want prefix %q", got, tt.wantPrefix)
			}
		})
	}
}

// TestHandlerToolCallErrorPaths verifies mapped service errors surface as tool-result errors.
func TestHandlerToolCallErrorPaths(t *testing.T) {
	board := &stubBoardReader{
		getErr: errors.Join(common.ErrNotFound, errors.New("task t404 not found")),
	}
	handler, err := NewHandler(Config{}, board, nil)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}

	server := httptest.NewServer(handler)
	defer server.Close()
	_, _ = postJSONRPC(t, server.Client(), server.URL, initializeRequest())

	_, callResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(2, "mbb.get_task", map[string]any{
		"task_id": "t404",
	}))
	if isError, _ := callResp.Result["isError"].(bool); !isError {
		t.Fatalf("isError = %v, want true", callResp.Result["isError"])
	}
	if got := toolResultText(t, callResp.Result); !strings.HasPrefix(got, "not_found:") {
		t.Fatalf("error text = %q, want prefix not_found:", got)
	}
}
