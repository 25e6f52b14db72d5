// Package httpapi provides the REST HTTP adapter for the server surfaces.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ChrisCotton/kanban-mbb-app-sub000/internal/adapters/server/common"
)

// maxRequestBodyBytes limits decoded JSON payload size for fail-closed request handling.
const maxRequestBodyBytes int64 = 1 << 20

// Handler serves the versioned API subrouter mounted under `/api/v1`.
type Handler struct {
	board common.BoardReader
	tasks common.TaskWriter
}

// APIError represents one structured API failure response.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Hint    string         `json:"hint,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

// ErrorEnvelope wraps one structured API error.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// NewHandler constructs one HTTP API adapter from board reads and an optional write surface.
func NewHandler(board common.BoardReader, tasks common.TaskWriter) *Handler {
	return &Handler{
		board: board,
		tasks: tasks,
	}
}

// ServeHTTP routes one versioned API request to the matching handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := normalizePath(r.URL.Path)
	switch {
	case path == "board":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleBoard(w, r)
	case path == "search":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleSearch(w, r)
	case path == "tasks":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		h.handleCreateTask(w, r)
	case path == "tasks/bulk/move":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		h.handleBulkMove(w, r)
	case path == "tasks/bulk/delete":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		h.handleBulkDelete(w, r)
	case path == "tasks/bulk/priority":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		h.handleBulkSetPriority(w, r)
	default:
		if taskID, ok := resolveTaskMovePath(path); ok {
			if r.Method != http.MethodPost {
				writeMethodNotAllowed(w, http.MethodPost)
				return
			}
			h.handleMoveTask(w, r, taskID)
			return
		}
		taskID, ok := resolveTaskPath(path)
		if !ok {
			writeJSONError(w, http.StatusNotFound, APIError{
				Code:    "not_found",
				Message: "endpoint not found",
			})
			return
		}
		switch r.Method {
		case http.MethodGet:
			h.handleGetTask(w, r, taskID)
		case http.MethodPatch:
			h.handleUpdateTask(w, r, taskID)
		case http.MethodDelete:
			h.handleDeleteTask(w, r, taskID)
		default:
			writeMethodNotAllowed(w, http.MethodGet, http.MethodPatch, http.MethodDelete)
		}
	}
}

// handleBoard serves GET `/board`.
func (h *Handler) handleBoard(w http.ResponseWriter, r *http.Request) {
	if h.board == nil {
		writeBoardUnavailable(w)
		return
	}
	capture, err := h.board.CaptureBoard(r.Context())
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, capture)
}

// handleSearch serves GET `/search`.
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	if h.board == nil {
		writeBoardUnavailable(w)
		return
	}
	query := r.URL.Query()
	req := common.SearchRequest{
		Query:      query.Get("q"),
		Statuses:   query["status"],
		Priorities: query["priority"],
	}
	capture, err := h.board.SearchTasks(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, capture)
}

// handleGetTask serves GET `/tasks/{id}`.
func (h *Handler) handleGetTask(w http.ResponseWriter, r *http.Request, taskID string) {
	if h.board == nil {
		writeBoardUnavailable(w)
		return
	}
	task, err := h.board.GetTask(r.Context(), taskID)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// handleCreateTask serves POST `/tasks`.
func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	if h.tasks == nil {
		writeWritesDisabled(w)
		return
	}
	var req common.CreateTaskRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	task, err := h.tasks.CreateTask(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// handleUpdateTask serves PATCH `/tasks/{id}`.
func (h *Handler) handleUpdateTask(w http.ResponseWriter, r *http.Request, taskID string) {
	if h.tasks == nil {
		writeWritesDisabled(w)
		return
	}
	var req common.UpdateTaskRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	task, err := h.tasks.UpdateTask(r.Context(), taskID, req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// handleMoveTask serves POST `/tasks/{id}/move`.
func (h *Handler) handleMoveTask(w http.ResponseWriter, r *http.Request, taskID string) {
	if h.tasks == nil {
		writeWritesDisabled(w)
		return
	}
	var req common.MoveTaskRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	task, err := h.tasks.MoveTask(r.Context(), taskID, req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// handleDeleteTask serves DELETE `/tasks/{id}`.
func (h *Handler) handleDeleteTask(w http.ResponseWriter, r *http.Request, taskID string) {
	if h.tasks == nil {
		writeWritesDisabled(w)
		return
	}
	if err := h.tasks.DeleteTask(r.Context(), taskID); err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"deleted": true,
		"task_id": taskID,
	})
}

// handleBulkMove serves POST `/tasks/bulk/move`.
func (h *Handler) handleBulkMove(w http.ResponseWriter, r *http.Request) {
	if h.tasks == nil {
		writeWritesDisabled(w)
		return
	}
	var req common.BulkMoveRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	if len(req.TaskIDs) == 0 {
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: "task_ids is required",
		})
		return
	}
	outcome, err := h.tasks.BulkMove(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// handleBulkDelete serves POST `/tasks/bulk/delete`.
func (h *Handler) handleBulkDelete(w http.ResponseWriter, r *http.Request) {
	if h.tasks == nil {
		writeWritesDisabled(w)
		return
	}
	var req common.BulkDeleteRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	if len(req.TaskIDs) == 0 {
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: "task_ids is required",
		})
		return
	}
	outcome, err := h.tasks.BulkDelete(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// handleBulkSetPriority serves POST `/tasks/bulk/priority`.
func (h *Handler) handleBulkSetPriority(w http.ResponseWriter, r *http.Request) {
	if h.tasks == nil {
		writeWritesDisabled(w)
		return
	}
	var req common.BulkPriorityRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	if len(req.TaskIDs) == 0 {
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: "task_ids is required",
		})
		return
	}
	outcome, err := h.tasks.BulkSetPriority(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// resolveTaskPath parses `tasks/{id}` and returns `{id}`.
func resolveTaskPath(path string) (string, bool) {
	const prefix = "tasks/"
	if !strings.HasPrefix(path, prefix) {
		return "", false
	}
	id := strings.TrimSpace(strings.TrimPrefix(path, prefix))
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

// resolveTaskMovePath parses `tasks/{id}/move` and returns `{id}`.
func resolveTaskMovePath(path string) (string, bool) {
	const (
		prefix = "tasks/"
		suffix = "/move"
	)
	if !strings.HasPrefix(path, prefix) || !strings.HasSuffix(path, suffix) {
		return "", false
	}
	id := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(path, prefix), suffix))
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

// normalizePath canonicalizes one request path for route matching.
func normalizePath(path string) string {
	path = strings.TrimSpace(path)
	path = strings.Trim(path, "/")
	return path
}

// writeErrorFrom maps adapter errors into structured HTTP responses.
func writeErrorFrom(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: "unknown error",
		})
	case errors.Is(err, common.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: err.Error(),
		})
	case errors.Is(err, common.ErrInvalidRequest):
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: err.Error(),
		})
	case errors.Is(err, common.ErrWritesDisabled):
		writeJSONError(w, http.StatusNotImplemented, APIError{
			Code:    "not_implemented",
			Message: err.Error(),
			Hint:    "Restart mbb serve without --read-only to enable task writes.",
		})
	default:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: err.Error(),
		})
	}
}

// writeBoardUnavailable reports a missing board read surface.
func writeBoardUnavailable(w http.ResponseWriter) {
	writeJSONError(w, http.StatusServiceUnavailable, APIError{
		Code:    "service_unavailable",
		Message: "board service is not configured",
	})
}

// writeWritesDisabled reports a missing task write surface.
func writeWritesDisabled(w http.ResponseWriter) {
	writeErrorFrom(w, common.ErrWritesDisabled)
}

// writeMethodNotAllowed writes a structured 405 response with `Allow` headers.
func writeMethodNotAllowed(w http.ResponseWriter, methods ...string) {
	if len(methods) > 0 {
		w.Header().Set("Allow", strings.Join(methods, ", "))
	}
	writeJSONError(w, http.StatusMethodNotAllowed, APIError{
		Code:    "method_not_allowed",
		Message: "method not allowed",
	})
}

// writeJSONError writes one structured error envelope.
func writeJSONError(w http.ResponseWriter, statusCode int, apiErr APIError) {
	writeJSON(w, statusCode, ErrorEnvelope{Error: apiErr})
}

// writeJSON writes one JSON response envelope.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":{"code":"encode_error","message":"%s"}}`, err.Error()), http.StatusInternalServerError)
	}
}

// decodeJSONBody decodes one required JSON request body with strict shape checks.
func decodeJSONBody(ctx context.Context, w http.ResponseWriter, r *http.Request, out any) error {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	defer reader.Close()

	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("decode request body: %w", errors.Join(common.ErrInvalidRequest, err))
	}
	// Reject trailing payloads so malformed JSON bodies fail closed.
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode request body: trailing content: %w", common.ErrInvalidRequest)
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("request canceled: %w", ctx.Err())
	default:
		return nil
	}
}
