package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/centavo-io/centavo/internal/models"
)

type PostgresTenantRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresTenantRepository(pool *pgxpool.Pool) *PostgresTenantRepository {
	return &PostgresTenantRepository{pool: pool}
}

// Create inserts the tenant and makes the creator its first member, in one
// transaction so a tenant can never exist without a member.
func (r *PostgresTenantRepository) Create(ctx context.Context, tenant *models.Tenant, creatorID string) error {
	if tenant.ID == "" {
		tenant.ID = uuid.NewString()
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `INSERT INTO tenants (id, name)
	          VALUES ($1, $2)
	          RETURNING created_at, updated_at`
	err = tx.QueryRow(ctx, query, tenant.ID, tenant.Name).
		Scan(&tenant.CreatedAt, &tenant.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create tenant: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO tenant_members (tenant_id, user_id) VALUES ($1, $2)`,
		tenant.ID, creatorID)
	if err != nil {
		return fmt.Errorf("failed to add creator membership: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit tenant creation: %w", err)
	}
	return nil
}

func (r *PostgresTenantRepository) GetByID(ctx context.Context, id string) (*models.Tenant, error) {
	query := `SELECT id, name, created_at, updated_at FROM tenants WHERE id = $1`

	var tenant models.Tenant
	err := r.pool.QueryRow(ctx, query, id).
		Scan(&tenant.ID, &tenant.Name, &tenant.CreatedAt, &tenant.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return &tenant, nil
}

func (r *PostgresTenantRepository) ListForUser(ctx context.Context, userID string) ([]*models.Tenant, error) {
	query := `SELECT t.id, t.name, t.created_at, t.updated_at
	          FROM tenants t
	          JOIN tenant_members m ON m.tenant_id = t.id
	          WHERE m.user_id = $1
	          ORDER BY t.created_at ASC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tenants: %w", err)
	}
	defer rows.Close()

	var tenants []*models.Tenant
	for rows.Next() {
		var tenant models.Tenant
		if err := rows.Scan(&tenant.ID, &tenant.Name, &tenant.CreatedAt, &tenant.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tenant: %w", err)
		}
		tenants = append(tenants, &tenant)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tenants: %w", err)
	}
	return tenants, nil
}

func (r *PostgresTenantRepository) AddMember(ctx context.Context, tenantID, userID string) error {
	query := `INSERT INTO tenant_members (tenant_id, user_id)
	          VALUES ($1, $2)
	          ON CONFLICT (tenant_id, user_id) DO NOTHING`

	if _, err := r.pool.Exec(ctx, query, tenantID, userID); err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

func (r *PostgresTenantRepository) IsMember(ctx context.Context, tenantID, userID string) (bool, error) {
	query := `SELECT EXISTS (
	            SELECT 1 FROM tenant_members WHERE tenant_id = $1 AND user_id = $2
	          )`

	var member bool
	if err := r.pool.QueryRow(ctx, query, tenantID, userID).Scan(&member); err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return member, nil
}
