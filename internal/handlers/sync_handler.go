package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/centavo-io/centavo/internal/sync"
)

// SyncService is the coordinator surface the handler consumes.
type SyncService interface {
	Pull(ctx context.Context, userID, tenantID string, req sync.PullRequest) (*sync.PullResponse, error)
	Push(ctx context.Context, userID, tenantID string, req sync.PushRequest) (*sync.PushResponse, error)
}

type SyncHandler struct {
	service SyncService
}

func NewSyncHandler(service SyncService) *SyncHandler {
	return &SyncHandler{service: service}
}

// Pull handles POST /v1/tenants/{tenantID}/sync/pull. An empty body is a
// full resync.
func (h *SyncHandler) Pull(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	userID := UserIDFromContext(r.Context())

	var req sync.PullRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	resp, err := h.service.Pull(r.Context(), userID, tenantID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// Push handles POST /v1/tenants/{tenantID}/sync/push.
func (h *SyncHandler) Push(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	userID := UserIDFromContext(r.Context())

	var req sync.PushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.service.Push(r.Context(), userID, tenantID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}
