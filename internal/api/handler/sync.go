package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/hack4change/moncton/internal/api/middleware"
	"github.com/hack4change/moncton/internal/api/response"
	"github.com/hack4change/moncton/internal/syncrelay"
)

// SyncRelay is the subset of syncrelay.Relay used by SyncHandler.
type SyncRelay interface {
	Enabled() bool
	HasTable(table string) bool
	SyncPayload(ctx context.Context, table string, record json.RawMessage) (string, error)
	FullSync(ctx context.Context) (*syncrelay.FullSyncResult, error)
}

type syncRequest struct {
	Table     string          `json:"table"`
	Record    json.RawMessage `json:"record"`
	OldRecord json.RawMessage `json:"old_record"`
}

type recordSyncResponse struct {
	Message string `json:"message"`
	Action  string `json:"action"`
}

type fullSyncResponse struct {
	Message string                     `json:"message"`
	Results *syncrelay.FullSyncResult `json:"results"`
}

// SyncHandler relays record changes to the external workspace.
type SyncHandler struct {
	relay SyncRelay
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(relay SyncRelay) *SyncHandler {
	return &SyncHandler{relay: relay}
}

// ServeHTTP handles POST /sync/notion. A body naming a configured table and a
// record syncs that record; any other body runs a full sync.
func (h *SyncHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	if !h.relay.Enabled() {
		slog.Error("workspace sync requested but not configured")
		response.Err(w, http.StatusInternalServerError, "CONFIGURATION_ERROR", "Workspace sync is not configured", requestID)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_BODY", "Request body could not be read", requestID)
		return
	}

	var req syncRequest
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
			return
		}
	}

	if hasRecord(req.Record) && h.relay.HasTable(req.Table) {
		action, err := h.relay.SyncPayload(r.Context(), req.Table, req.Record)
		if err != nil {
			slog.Error("failed to sync record", "error", err, "table", req.Table)
			response.Err(w, http.StatusInternalServerError, "SYNC_FAILED", "Sync failed", requestID)
			return
		}
		slog.Info("record synced", "table", req.Table, "action", action)
		response.Success(w, http.StatusOK, recordSyncResponse{
			Message: recordSyncMessage(req.Table),
			Action:  action,
		}, requestID)
		return
	}

	results, err := h.relay.FullSync(r.Context())
	if err != nil {
		if errors.Is(err, syncrelay.ErrNotConfigured) {
			response.Err(w, http.StatusInternalServerError, "CONFIGURATION_ERROR", "Workspace sync is not configured", requestID)
			return
		}
		slog.Error("full sync failed", "error", err)
		response.Err(w, http.StatusInternalServerError, "SYNC_FAILED", "Sync failed", requestID)
		return
	}

	response.Success(w, http.StatusOK, fullSyncResponse{Message: "Full sync completed", Results: results}, requestID)
}

func hasRecord(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

func recordSyncMessage(table string) string {
	if table == "teams" {
		return "Team webhook sync completed"
	}
	return "Profile webhook sync completed"
}
