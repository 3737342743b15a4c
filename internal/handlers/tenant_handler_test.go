package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centavo-io/centavo/internal/models"
	"github.com/centavo-io/centavo/internal/repositories"
)

// fakeTenantStore keeps tenants and memberships in memory.
type fakeTenantStore struct {
	tenants map[string]bool
	members map[string]bool
}

func newFakeTenantStore() *fakeTenantStore {
	return &fakeTenantStore{tenants: map[string]bool{}, members: map[string]bool{}}
}

func (f *fakeTenantStore) add(tenantID string, userIDs ...string) {
	f.tenants[tenantID] = true
	for _, id := range userIDs {
		f.members[tenantID+":"+id] = true
	}
}

func (f *fakeTenantStore) Create(ctx context.Context, tenant *models.Tenant, creatorID string) error {
	f.add(tenant.ID, creatorID)
	return nil
}

func (f *fakeTenantStore) GetByID(ctx context.Context, id string) (*models.Tenant, error) {
	if !f.tenants[id] {
		return nil, repositories.ErrNotFound
	}
	return &models.Tenant{ID: id}, nil
}

func (f *fakeTenantStore) ListForUser(ctx context.Context, userID string) ([]*models.Tenant, error) {
	return nil, nil
}

func (f *fakeTenantStore) AddMember(ctx context.Context, tenantID, userID string) error {
	f.members[tenantID+":"+userID] = true
	return nil
}

func (f *fakeTenantStore) IsMember(ctx context.Context, tenantID, userID string) (bool, error) {
	return f.members[tenantID+":"+userID], nil
}

// fakeMembershipCache records which pairs were invalidated.
type fakeMembershipCache struct {
	invalidated []string
}

func (c *fakeMembershipCache) Get(ctx context.Context, tenantID, userID string) (bool, bool, error) {
	return false, false, nil
}

func (c *fakeMembershipCache) Set(ctx context.Context, tenantID, userID string, member bool) error {
	return nil
}

func (c *fakeMembershipCache) Invalidate(ctx context.Context, tenantID, userID string) error {
	c.invalidated = append(c.invalidated, tenantID+":"+userID)
	return nil
}

func newTenantRouter(h *TenantHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(Authenticator(stubVerifier{userID: "u1"}))
	r.Post("/v1/tenants/{tenantID}/members", h.AddMember)
	return r
}

func TestTenantHandler_AddMemberInvalidatesCache(t *testing.T) {
	store := newFakeTenantStore()
	store.add("t1", "u1")
	cache := &fakeMembershipCache{}
	router := newTenantRouter(NewTenantHandler(store, cache))

	rec := doRequest(t, router, http.MethodPost, "/v1/tenants/t1/members",
		`{"user_id": "u2"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)

	member, err := store.IsMember(context.Background(), "t1", "u2")
	require.NoError(t, err)
	assert.True(t, member)
	assert.Equal(t, []string{"t1:u2"}, cache.invalidated,
		"a stale cached denial for the new member must be dropped")
}

func TestTenantHandler_AddMemberRequiresMembership(t *testing.T) {
	store := newFakeTenantStore()
	store.add("t1", "someone-else")
	router := newTenantRouter(NewTenantHandler(store, &fakeMembershipCache{}))

	rec := doRequest(t, router, http.MethodPost, "/v1/tenants/t1/members",
		`{"user_id": "u2"}`)

	assert.Equal(t, http.StatusForbidden, rec.Code)

	member, err := store.IsMember(context.Background(), "t1", "u2")
	require.NoError(t, err)
	assert.False(t, member)
}

func TestTenantHandler_AddMemberUnknownTenant(t *testing.T) {
	router := newTenantRouter(NewTenantHandler(newFakeTenantStore(), nil))

	rec := doRequest(t, router, http.MethodPost, "/v1/tenants/t-missing/members",
		`{"user_id": "u2"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTenantHandler_AddMemberRequiresUserID(t *testing.T) {
	store := newFakeTenantStore()
	store.add("t1", "u1")
	router := newTenantRouter(NewTenantHandler(store, nil))

	rec := doRequest(t, router, http.MethodPost, "/v1/tenants/t1/members", `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
