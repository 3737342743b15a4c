package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

// TenantGuard verifies the authenticated user may act for a tenant. It is
// the sole tenant-isolation enforcement point: everything downstream trusts
// a tenant id that passed the guard.
type TenantGuard interface {
	// Authorize returns nil for members, ErrTenantNotFound for unknown
	// tenants and ErrTenantAccess for non-members.
	Authorize(ctx context.Context, userID, tenantID string) error
}

// Coordinator orchestrates all registered adapters for one tenant: pull fans
// out across adapters concurrently, push drives them sequentially inside a
// single transaction.
type Coordinator struct {
	pool     *pgxpool.Pool
	registry *Registry
	guard    TenantGuard
	now      func() int64
}

func NewCoordinator(pool *pgxpool.Pool, registry *Registry, guard TenantGuard) *Coordinator {
	return &Coordinator{
		pool:     pool,
		registry: registry,
		guard:    guard,
		now:      func() int64 { return time.Now().UnixMilli() },
	}
}

// normalizeWatermark resolves the client's request to an effective watermark.
// An absent or non-positive watermark, or an explicit replacement request,
// means full resync from zero.
func normalizeWatermark(req PullRequest) (int64, bool) {
	if req.Replacement || req.LastPulledAt == nil || *req.LastPulledAt <= 0 {
		return 0, true
	}
	return *req.LastPulledAt, false
}

// Pull collects every adapter's change set at or after the client watermark.
// The response timestamp is taken before the reads start, so a write landing
// mid-pull is re-delivered on the next pull rather than lost. Reads run
// concurrently; they are independent and touch disjoint tables. Any failure
// fails the whole pull — partial change sets are never returned.
func (c *Coordinator) Pull(ctx context.Context, userID, tenantID string, req PullRequest) (*PullResponse, error) {
	if err := c.guard.Authorize(ctx, userID, tenantID); err != nil {
		return nil, err
	}

	watermark, replacement := normalizeWatermark(req)
	timestamp := c.now()

	adapters := c.registry.All()
	results := make([]*ChangeSet, len(adapters))

	g, gctx := errgroup.WithContext(ctx)
	for i, a := range adapters {
		g.Go(func() error {
			cs, err := a.Pull(gctx, c.pool, tenantID, watermark)
			if err != nil {
				return err
			}
			results[i] = cs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	changes := make(map[string]*ChangeSet, len(adapters))
	for i, a := range adapters {
		changes[a.EntityType()] = results[i]
	}

	resp := &PullResponse{Changes: changes, Timestamp: timestamp}
	if replacement {
		resp.ReplacementStrategy = ReplacementStrategy
	}
	return resp, nil
}

// Push applies a client's change sets inside one transaction. Adapters run
// sequentially in registry order; within an adapter the phases are fixed:
// creates, then updates, then deletes. Any failure rolls the whole
// transaction back — no entity type is ever partially committed.
func (c *Coordinator) Push(ctx context.Context, userID, tenantID string, req PushRequest) (*PushResponse, error) {
	if err := c.guard.Authorize(ctx, userID, tenantID); err != nil {
		return nil, err
	}

	// Unknown entity names are rejected up front rather than silently
	// skipped, so a misspelled table name on the client fails loudly.
	for name := range req.Changes {
		if _, ok := c.registry.Get(name); !ok {
			return nil, &ValidationError{Entity: name, Reason: "unknown entity type"}
		}
	}

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin push transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	applied := []EntityResult{}
	for _, a := range c.registry.All() {
		cs, ok := req.Changes[a.EntityType()]
		if !ok || cs == nil {
			continue
		}

		creates, err := c.prepare(a, cs.Created)
		if err != nil {
			return nil, err
		}
		updates, err := c.prepare(a, cs.Updated)
		if err != nil {
			return nil, err
		}

		if err := a.ApplyCreates(ctx, tx, tenantID, creates); err != nil {
			return nil, err
		}
		if err := a.ApplyUpdates(ctx, tx, tenantID, updates); err != nil {
			return nil, err
		}
		if err := a.ApplyDeletes(ctx, tx, tenantID, cs.Deleted); err != nil {
			return nil, err
		}
		applied = append(applied, EntityResult{Entity: a.EntityType(), OK: true})
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit push transaction: %w", err)
	}
	return &PushResponse{Applied: applied}, nil
}

// prepare canonicalizes and validates a batch of incoming records.
func (c *Coordinator) prepare(a Adapter, raw []Record) ([]Record, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]Record, len(raw))
	for i, r := range raw {
		rec := a.Canonicalize(r)
		if err := a.Validate(rec); err != nil {
			return nil, err
		}
		out[i] = rec
	}
	return out, nil
}
