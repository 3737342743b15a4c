package sync

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Adapter is the per-entity-type implementation of the sync primitives. One
// adapter exists per synchronizable table; the Coordinator fans pull out
// across all of them and drives the three apply phases during push.
type Adapter interface {
	// EntityType is the wire name of the entity, which is also its table name.
	EntityType() string

	// Canonicalize projects an externally supplied record down to the columns
	// this adapter persists. Unknown fields are dropped; tenant_id and the
	// server-owned timestamps are never trusted from the client.
	Canonicalize(raw Record) Record

	// Validate checks a canonicalized record against this entity's rules.
	Validate(rec Record) error

	// Pull returns every change visible to the tenant at or after the
	// watermark, merged into one ChangeSet. It never mutates state.
	Pull(ctx context.Context, db Querier, tenantID string, watermark int64) (*ChangeSet, error)

	// ApplyCreates, ApplyUpdates and ApplyDeletes write one phase of a push.
	// Each is a no-op on empty input and must run on the push transaction.
	ApplyCreates(ctx context.Context, db Querier, tenantID string, records []Record) error
	ApplyUpdates(ctx context.Context, db Querier, tenantID string, records []Record) error
	ApplyDeletes(ctx context.Context, db Querier, tenantID string, ids []string) error
}

// AdapterDeps carries the shared collaborators every table adapter needs.
type AdapterDeps struct {
	Exec   *BatchExecutor
	Ledger *TombstoneLedger
	Now    func() int64
}

// tableConfig describes one synchronizable table.
type tableConfig struct {
	// table is the storage name, and doubles as the wire entity name.
	table string
	// columns is the canonical column order, starting with "id". It excludes
	// tenant_id, created_at and updated_at, which the server owns.
	columns []string
	// intColumns lists columns that must be coerced to int64 during
	// canonicalization (JSON numbers decode as float64).
	intColumns []string
	// validate holds the entity-specific rules, if any.
	validate func(rec Record) error
}

// tableAdapter is the single Adapter implementation, parameterized per entity
// type by its tableConfig. The registry of these instances replaces a class
// hierarchy.
type tableAdapter struct {
	cfg  tableConfig
	deps AdapterDeps
}

func newTableAdapter(deps AdapterDeps, cfg tableConfig) *tableAdapter {
	return &tableAdapter{cfg: cfg, deps: deps}
}

func (a *tableAdapter) EntityType() string {
	return a.cfg.table
}

func (a *tableAdapter) Canonicalize(raw Record) Record {
	rec := make(Record, len(a.cfg.columns))
	for _, col := range a.cfg.columns {
		if v, ok := raw[col]; ok {
			rec[col] = v
		}
	}
	for _, col := range a.cfg.intColumns {
		if v, ok := rec[col]; ok {
			if n, ok := asInt64(v); ok {
				rec[col] = n
			}
		}
	}
	return rec
}

func (a *tableAdapter) Validate(rec Record) error {
	if rec.ID() == "" {
		return &ValidationError{Entity: a.cfg.table, Reason: "record is missing an id"}
	}
	if a.cfg.validate != nil {
		return a.cfg.validate(rec)
	}
	return nil
}

// Pull runs the three watermark queries concurrently: rows created at or
// after the watermark, rows created before but updated at or after it (which
// keeps the two buckets disjoint), and tombstoned ids.
func (a *tableAdapter) Pull(ctx context.Context, db Querier, tenantID string, watermark int64) (*ChangeSet, error) {
	selectCols := a.selectColumns()

	cs := &ChangeSet{Created: []Record{}, Updated: []Record{}, Deleted: []string{}}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		query := fmt.Sprintf(`SELECT %s FROM %s WHERE tenant_id = $1 AND created_at >= $2`,
			selectCols, a.cfg.table)
		records, err := a.queryRecords(gctx, db, query, tenantID, watermark)
		if err != nil {
			return fmt.Errorf("failed to pull created %s: %w", a.cfg.table, err)
		}
		cs.Created = records
		return nil
	})

	g.Go(func() error {
		query := fmt.Sprintf(`SELECT %s FROM %s WHERE tenant_id = $1 AND created_at < $2 AND updated_at >= $2`,
			selectCols, a.cfg.table)
		records, err := a.queryRecords(gctx, db, query, tenantID, watermark)
		if err != nil {
			return fmt.Errorf("failed to pull updated %s: %w", a.cfg.table, err)
		}
		cs.Updated = records
		return nil
	})

	g.Go(func() error {
		ids, err := a.deps.Ledger.DeletedSince(gctx, db, tenantID, a.cfg.table, watermark)
		if err != nil {
			return fmt.Errorf("failed to pull deleted %s: %w", a.cfg.table, err)
		}
		cs.Deleted = ids
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return cs, nil
}

func (a *tableAdapter) ApplyCreates(ctx context.Context, db Querier, tenantID string, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	now := a.deps.Now()
	stamped := make([]Record, len(records))
	for i, rec := range records {
		s := rec.clone()
		s["tenant_id"] = tenantID
		s["created_at"] = now
		s["updated_at"] = now
		stamped[i] = s
	}
	insertCols := append(append([]string{}, a.cfg.columns...), "tenant_id", "created_at", "updated_at")
	return a.deps.Exec.Insert(ctx, db, a.cfg.table, insertCols, stamped)
}

func (a *tableAdapter) ApplyUpdates(ctx context.Context, db Querier, tenantID string, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	now := a.deps.Now()
	stamped := make([]Record, len(records))
	for i, rec := range records {
		s := rec.clone()
		s["updated_at"] = now
		stamped[i] = s
	}
	// Everything but the id gets overwritten; created_at stays immutable.
	setCols := make([]string, 0, len(a.cfg.columns))
	for _, col := range a.cfg.columns {
		if col != "id" {
			setCols = append(setCols, col)
		}
	}
	setCols = append(setCols, "updated_at")
	return a.deps.Exec.Update(ctx, db, a.cfg.table, setCols, tenantID, stamped)
}

func (a *tableAdapter) ApplyDeletes(ctx context.Context, db Querier, tenantID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	now := a.deps.Now()
	for _, ck := range chunk(ids, a.deps.Exec.chunkSize) {
		// Tombstones first, then the rows, inside the same transaction.
		if err := a.deps.Ledger.RecordDeletes(ctx, db, tenantID, a.cfg.table, ck, now); err != nil {
			return err
		}
		if err := a.deps.Exec.Delete(ctx, db, a.cfg.table, tenantID, ck); err != nil {
			return err
		}
	}
	return nil
}

// selectColumns is what pull reads back: the canonical columns plus the
// server timestamps, but never tenant_id.
func (a *tableAdapter) selectColumns() string {
	cols := append(append([]string{}, a.cfg.columns...), "created_at", "updated_at")
	return strings.Join(cols, ", ")
}

func (a *tableAdapter) queryRecords(ctx context.Context, db Querier, query string, args ...any) ([]Record, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []Record{}
	fields := rows.FieldDescriptions()
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		rec := make(Record, len(fields))
		for i, fd := range fields {
			rec[fd.Name] = values[i]
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r Record) clone() Record {
	out := make(Record, len(r)+3)
	for k, v := range r {
		out[k] = v
	}
	return out
}

// asInt64 coerces the numeric types JSON decoding and pgx scanning produce.
func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}
