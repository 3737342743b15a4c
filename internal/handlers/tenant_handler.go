package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/centavo-io/centavo/internal/models"
	"github.com/centavo-io/centavo/internal/repositories"
	"github.com/centavo-io/centavo/internal/sync"
)

type TenantHandler struct {
	tenants repositories.TenantRepository
	cache   repositories.MembershipCache
}

// NewTenantHandler builds the tenant endpoints. cache may be nil.
func NewTenantHandler(tenants repositories.TenantRepository, cache repositories.MembershipCache) *TenantHandler {
	return &TenantHandler{tenants: tenants, cache: cache}
}

func (h *TenantHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	tenant := &models.Tenant{Name: req.Name}
	if err := h.tenants.Create(r.Context(), tenant, UserIDFromContext(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, tenant)
}

func (h *TenantHandler) List(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.tenants.ListForUser(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	if tenants == nil {
		tenants = []*models.Tenant{}
	}
	respondJSON(w, http.StatusOK, tenants)
}

// AddMember handles POST /v1/tenants/{tenantID}/members. Only existing
// members may add new ones. The cached membership for the added user is
// invalidated so the access guard sees the change before the TTL lapses.
func (h *TenantHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")

	var req struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	if _, err := h.tenants.GetByID(r.Context(), tenantID); err != nil {
		writeError(w, err)
		return
	}

	requester, err := h.tenants.IsMember(r.Context(), tenantID, UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	if !requester {
		writeError(w, sync.ErrTenantAccess)
		return
	}

	if err := h.tenants.AddMember(r.Context(), tenantID, req.UserID); err != nil {
		writeError(w, err)
		return
	}
	if h.cache != nil {
		// A cached denial for this pair would otherwise linger until the TTL.
		_ = h.cache.Invalidate(r.Context(), tenantID, req.UserID)
	}
	respondJSON(w, http.StatusCreated, map[string]string{"tenant_id": tenantID, "user_id": req.UserID})
}
