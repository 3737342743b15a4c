package repositories

import (
	"context"

	"github.com/centavo-io/centavo/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type TenantRepository interface {
	// Create inserts the tenant and its creator's membership atomically.
	Create(ctx context.Context, tenant *models.Tenant, creatorID string) error
	GetByID(ctx context.Context, id string) (*models.Tenant, error)
	ListForUser(ctx context.Context, userID string) ([]*models.Tenant, error)
	AddMember(ctx context.Context, tenantID, userID string) error
	IsMember(ctx context.Context, tenantID, userID string) (bool, error)
}

// MembershipCache is a short-lived cache over membership lookups so the
// access guard does not hit Postgres on every sync call.
type MembershipCache interface {
	Get(ctx context.Context, tenantID, userID string) (member bool, found bool, err error)
	Set(ctx context.Context, tenantID, userID string, member bool) error
	Invalidate(ctx context.Context, tenantID, userID string) error
}
