package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"runtime/debug"

	"github.com/google/uuid"

	"github.com/Warky-Devs/TableSpec/pkg/common"
	"github.com/Warky-Devs/TableSpec/pkg/logger"
	"github.com/Warky-Devs/TableSpec/pkg/registry"
	"github.com/Warky-Devs/TableSpec/pkg/tablespec"
)

// RequestIDHeader carries the request id on every response.
const RequestIDHeader = "X-Request-ID"

// Handler serves table payloads, exports and actions for the tables of a registry.
type Handler struct {
	db       common.Database
	registry *registry.TableRegistry
}

// NewHandler creates a handler resolving tables of reg against db.
// A nil registry means the default global registry.
func NewHandler(db common.Database, reg *registry.TableRegistry) *Handler {
	if reg == nil {
		reg = registry.Default()
	}
	return &Handler{db: db, registry: reg}
}

// handlePanic is a helper function to handle panics with stack traces
func (h *Handler) handlePanic(w http.ResponseWriter, method string, err interface{}) {
	stack := debug.Stack()
	logger.Error("Panic in %s: %v\nStack trace:\n%s", method, err, string(stack))
	h.sendError(w, http.StatusInternalServerError, "internal_error", fmt.Sprintf("Internal server error in %s", method), fmt.Errorf("%v", err))
}

// HandleIndex lists the registered tables.
func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	requestID := h.requestID(w, r)
	names := h.registry.Names()
	h.sendResponse(w, names, &common.Metadata{RequestID: requestID, Count: int64(len(names))})
}

// HandleTable writes {"<name>": payload} for the table named in params.
func (h *Handler) HandleTable(w http.ResponseWriter, r *http.Request, params map[string]string) {
	defer func() {
		if err := recover(); err != nil {
			h.handlePanic(w, "HandleTable", err)
		}
	}()

	requestID := h.requestID(w, r)
	def, ok := h.definition(w, r, params["table"])
	if !ok {
		return
	}

	logger.Debug("[%s] Resolving table %s", requestID, def.Name())
	payload, err := tablespec.Resolve(r.Context(), h.db, def, tablespec.QueryFromRequest(r))
	if err != nil {
		logger.Error("[%s] Error resolving table %s: %v", requestID, def.Name(), err)
		h.sendError(w, http.StatusInternalServerError, "query_error", "Error resolving table", err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]*tablespec.Payload{def.Name(): payload})
}

// HandleExport streams the table as a CSV attachment. The view to export is
// taken from the url query parameter, as posted by the export action.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request, params map[string]string) {
	defer func() {
		if err := recover(); err != nil {
			h.handlePanic(w, "HandleExport", err)
		}
	}()

	requestID := h.requestID(w, r)
	def, ok := h.definition(w, r, params["table"])
	if !ok {
		return
	}
	h.export(r.Context(), w, requestID, def, tablespec.QueryFromRequest(r))
}

// HandleAction runs the action posted in the body. The export action streams
// CSV, every other action answers with the response envelope.
func (h *Handler) HandleAction(w http.ResponseWriter, r *http.Request, params map[string]string) {
	defer func() {
		if err := recover(); err != nil {
			h.handlePanic(w, "HandleAction", err)
		}
	}()

	requestID := h.requestID(w, r)
	def, ok := h.definition(w, r, params["table"])
	if !ok {
		return
	}

	var req common.ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("[%s] Invalid action body for %s: %v", requestID, def.Name(), err)
		h.sendError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", err)
		return
	}

	logger.Info("[%s] Running action %s on %s for %d rows", requestID, req.Action, def.Name(), len(req.IDs))
	if req.Action == tablespec.ExportActionName {
		if _, ok := def.Action(req.Action); !ok {
			h.sendError(w, http.StatusBadRequest, "unknown_action", "Unknown action", fmt.Errorf("%w: %s", tablespec.ErrUnknownAction, req.Action))
			return
		}
		query := tablespec.Query{Params: url.Values{tablespec.ExportURLParam: {req.URL}}}
		h.export(r.Context(), w, requestID, def, query)
		return
	}

	result, err := tablespec.RunAction(r.Context(), h.db, def, req)
	if err != nil {
		logger.Error("[%s] Action %s on %s failed: %v", requestID, req.Action, def.Name(), err)
		status, code := errorStatus(err)
		h.sendError(w, status, code, "Action failed", err)
		return
	}

	h.sendResponse(w, result, &common.Metadata{
		RequestID: requestID,
		Table:     def.Name(),
		Count:     int64(len(req.IDs)),
	})
}

func (h *Handler) export(ctx context.Context, w http.ResponseWriter, requestID string, def *tablespec.Definition, query tablespec.Query) {
	// Headers are written only once the whole export succeeded.
	var buf bytes.Buffer
	if err := tablespec.Export(ctx, h.db, def, query, &buf); err != nil {
		logger.Error("[%s] Error exporting table %s: %v", requestID, def.Name(), err)
		h.sendError(w, http.StatusInternalServerError, "export_error", "Error exporting table", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", tablespec.ExportFileName(def)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logger.Error("[%s] Failed to write export: %v", requestID, err)
	}
}

// definition builds the named table, answering with an error when it can't.
func (h *Handler) definition(w http.ResponseWriter, r *http.Request, name string) (*tablespec.Definition, bool) {
	def, err := h.registry.Definition(name, r)
	if err != nil {
		logger.Error("Error building table %s: %v", name, err)
		status, code := errorStatus(err)
		h.sendError(w, status, code, fmt.Sprintf("Table %s is not available", name), err)
		return nil, false
	}
	return def, true
}

// requestID reuses the inbound request id or creates one, and echoes it.
func (h *Handler) requestID(w http.ResponseWriter, r *http.Request) string {
	id := r.Header.Get(RequestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set(RequestIDHeader, id)
	return id
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, registry.ErrTableNotFound):
		return http.StatusNotFound, "table_not_found"
	case errors.Is(err, tablespec.ErrUnknownAction):
		return http.StatusBadRequest, "unknown_action"
	case errors.Is(err, tablespec.ErrInvalidConfiguration):
		return http.StatusInternalServerError, "invalid_configuration"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func (h *Handler) sendResponse(w http.ResponseWriter, data interface{}, metadata *common.Metadata) {
	response := common.Response{
		Success:  true,
		Data:     data,
		Metadata: metadata,
	}
	h.writeJSON(w, http.StatusOK, response)
}

func (h *Handler) sendError(w http.ResponseWriter, statusCode int, code, message string, err error) {
	var details string
	if err != nil {
		details = err.Error()
	}

	response := common.Response{
		Success: false,
		Error: &common.APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
	h.writeJSON(w, statusCode, response)
}

func (h *Handler) writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to write JSON response: %v", err)
	}
}
