package sync

import (
	"context"
	"fmt"
	"strings"
)

// TombstoneLedger is the durable record of deletions. A tombstone outlives
// the row it refers to, so pull can report deletions that happened after a
// client's watermark. One row exists per (tenant, entity type, id); deleting
// a recreated id refreshes that row's deleted_at rather than adding a second.
type TombstoneLedger struct{}

func NewTombstoneLedger() *TombstoneLedger {
	return &TombstoneLedger{}
}

// DeletedSince returns the ids of entities of the given type deleted at or
// after the watermark, scoped to the tenant.
func (l *TombstoneLedger) DeletedSince(ctx context.Context, db Querier, tenantID, entityType string, watermark int64) ([]string, error) {
	query := `SELECT entity_id FROM tombstones
	          WHERE tenant_id = $1 AND entity_type = $2 AND deleted_at >= $3`

	rows, err := db.Query(ctx, query, tenantID, entityType, watermark)
	if err != nil {
		return nil, fmt.Errorf("failed to query tombstones: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan tombstone: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tombstones: %w", err)
	}
	return ids, nil
}

// RecordDeletes writes one tombstone per id in a single multi-row statement.
// Runs on the caller's Querier so a push delete and its tombstones share one
// transaction. An id deleted before (deleted, recreated, deleted again) gets
// its existing tombstone's deleted_at refreshed instead of a duplicate row.
// Exactly len(ids) rows must be affected either way.
func (l *TombstoneLedger) RecordDeletes(ctx context.Context, db Querier, tenantID, entityType string, ids []string, deletedAt int64) error {
	if len(ids) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO tombstones (tenant_id, entity_type, entity_id, deleted_at) VALUES ")
	args := make([]any, 0, len(ids)*4)
	p := 1
	for i, id := range ids {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d)", p, p+1, p+2, p+3)
		p += 4
		args = append(args, tenantID, entityType, id, deletedAt)
	}
	sb.WriteString(" ON CONFLICT (tenant_id, entity_type, entity_id) DO UPDATE SET deleted_at = EXCLUDED.deleted_at")

	tag, err := db.Exec(ctx, sb.String(), args...)
	if err != nil {
		return fmt.Errorf("failed to insert tombstones: %w", err)
	}
	if tag.RowsAffected() != int64(len(ids)) {
		return fmt.Errorf("tombstone insert affected %d of %d rows: %w",
			tag.RowsAffected(), len(ids), ErrRowCountMismatch)
	}
	return nil
}

// Prune removes tombstones deleted before the cutoff. Retention is otherwise
// unbounded; this is a maintenance operation for operators, never called by
// the sync path itself. A client holding a watermark older than the cutoff
// must perform a full resync to observe the pruned deletions.
func (l *TombstoneLedger) Prune(ctx context.Context, db Querier, before int64) (int64, error) {
	tag, err := db.Exec(ctx, `DELETE FROM tombstones WHERE deleted_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to prune tombstones: %w", err)
	}
	return tag.RowsAffected(), nil
}
