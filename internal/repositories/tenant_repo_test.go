package repositories

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centavo-io/centavo/internal/models"
)

// getTestPool returns a connection pool for testing, or skips when no test
// database is configured.
func getTestPool(t *testing.T) *pgxpool.Pool {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping integration test")
	}
	pool, err := pgxpool.New(context.Background(), url)
	require.NoError(t, err, "Failed to connect to test database")
	t.Cleanup(pool.Close)
	return pool
}

// createTestUser inserts a user and registers cleanup (cascades to
// memberships).
func createTestUser(t *testing.T, ctx context.Context, pool *pgxpool.Pool) *models.User {
	repo := NewPostgresUserRepository(pool)
	user := &models.User{
		Email:        "test-" + uuid.NewString() + "@example.com",
		PasswordHash: "test-hash",
	}
	err := repo.Create(ctx, user)
	require.NoError(t, err, "Failed to create test user")

	t.Cleanup(func() {
		if _, err := pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, user.ID); err != nil {
			t.Logf("Warning: failed to clean up test user: %v", err)
		}
	})
	return user
}

func createTestTenant(t *testing.T, ctx context.Context, pool *pgxpool.Pool, creatorID string) *models.Tenant {
	repo := NewPostgresTenantRepository(pool)
	tenant := &models.Tenant{Name: "Household " + uuid.NewString()[:8]}
	err := repo.Create(ctx, tenant, creatorID)
	require.NoError(t, err, "Failed to create test tenant")

	t.Cleanup(func() {
		if _, err := pool.Exec(ctx, `DELETE FROM tenants WHERE id = $1`, tenant.ID); err != nil {
			t.Logf("Warning: failed to clean up test tenant: %v", err)
		}
	})
	return tenant
}

func TestTenantRepository_CreateAddsCreatorMembership(t *testing.T) {
	pool := getTestPool(t)
	repo := NewPostgresTenantRepository(pool)
	ctx := context.Background()

	user := createTestUser(t, ctx, pool)
	tenant := createTestTenant(t, ctx, pool, user.ID)

	assert.NotEmpty(t, tenant.ID)
	assert.False(t, tenant.CreatedAt.IsZero())

	member, err := repo.IsMember(ctx, tenant.ID, user.ID)
	require.NoError(t, err)
	assert.True(t, member, "creator should be a member")
}

func TestTenantRepository_GetByID(t *testing.T) {
	pool := getTestPool(t)
	repo := NewPostgresTenantRepository(pool)
	ctx := context.Background()

	user := createTestUser(t, ctx, pool)
	tenant := createTestTenant(t, ctx, pool, user.ID)

	got, err := repo.GetByID(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, got.ID)
	assert.Equal(t, tenant.Name, got.Name)

	_, err = repo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTenantRepository_Membership(t *testing.T) {
	pool := getTestPool(t)
	repo := NewPostgresTenantRepository(pool)
	ctx := context.Background()

	owner := createTestUser(t, ctx, pool)
	outsider := createTestUser(t, ctx, pool)
	tenant := createTestTenant(t, ctx, pool, owner.ID)

	member, err := repo.IsMember(ctx, tenant.ID, outsider.ID)
	require.NoError(t, err)
	assert.False(t, member)

	require.NoError(t, repo.AddMember(ctx, tenant.ID, outsider.ID))
	// Adding twice is a no-op.
	require.NoError(t, repo.AddMember(ctx, tenant.ID, outsider.ID))

	member, err = repo.IsMember(ctx, tenant.ID, outsider.ID)
	require.NoError(t, err)
	assert.True(t, member)
}

func TestTenantRepository_ListForUser(t *testing.T) {
	pool := getTestPool(t)
	repo := NewPostgresTenantRepository(pool)
	ctx := context.Background()

	user := createTestUser(t, ctx, pool)
	first := createTestTenant(t, ctx, pool, user.ID)
	second := createTestTenant(t, ctx, pool, user.ID)

	tenants, err := repo.ListForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, tenants, 2)
	assert.Equal(t, first.ID, tenants[0].ID)
	assert.Equal(t, second.ID, tenants[1].ID)
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	pool := getTestPool(t)
	repo := NewPostgresUserRepository(pool)
	ctx := context.Background()

	user := createTestUser(t, ctx, pool)

	byEmail, err := repo.GetByEmail(ctx, user.Email)
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	byID, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, byID.Email)

	_, err = repo.GetByEmail(ctx, "missing-"+uuid.NewString()+"@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}
