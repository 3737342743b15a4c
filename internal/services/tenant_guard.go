package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/centavo-io/centavo/internal/repositories"
	"github.com/centavo-io/centavo/internal/sync"
)

// TenantGuardService checks that the authenticated user is a member of the
// requested tenant before any sync call proceeds. Lookups go through the
// membership cache when one is configured; a cache failure falls back to
// Postgres rather than failing the call.
type TenantGuardService struct {
	tenants repositories.TenantRepository
	cache   repositories.MembershipCache
}

// NewTenantGuardService builds the guard. cache may be nil, in which case
// every check hits the tenant store directly.
func NewTenantGuardService(tenants repositories.TenantRepository, cache repositories.MembershipCache) *TenantGuardService {
	return &TenantGuardService{tenants: tenants, cache: cache}
}

// Authorize implements sync.TenantGuard.
func (s *TenantGuardService) Authorize(ctx context.Context, userID, tenantID string) error {
	if tenantID == "" {
		return sync.ErrTenantAccess
	}

	if s.cache != nil {
		member, found, err := s.cache.Get(ctx, tenantID, userID)
		if err == nil && found {
			if !member {
				return sync.ErrTenantAccess
			}
			return nil
		}
	}

	if _, err := s.tenants.GetByID(ctx, tenantID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return sync.ErrTenantNotFound
		}
		return fmt.Errorf("failed to look up tenant: %w", err)
	}

	member, err := s.tenants.IsMember(ctx, tenantID, userID)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}

	if s.cache != nil {
		// Best effort; the next call just misses the cache again.
		_ = s.cache.Set(ctx, tenantID, userID, member)
	}

	if !member {
		return sync.ErrTenantAccess
	}
	return nil
}
