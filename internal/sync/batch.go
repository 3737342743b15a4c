package sync

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ChunkSize bounds how many records go into one statement. 100 keeps every
// statement comfortably under parameterized-query limits for the widest
// entity table.
const ChunkSize = 100

// Querier is the subset of pgx that the sync engine needs. Both *pgxpool.Pool
// and pgx.Tx satisfy it, so adapters run their reads on the pool and their
// writes inside the push transaction without knowing the difference.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

var (
	_ Querier = (*pgxpool.Pool)(nil)
	_ Querier = (pgx.Tx)(nil)
)

// BatchExecutor splits record lists into fixed-size chunks and executes one
// parameterized statement per chunk, verifying affected-row counts. It holds
// no connection of its own; every call runs on the caller's Querier, so push
// writes stay inside the caller's transaction.
type BatchExecutor struct {
	chunkSize int
}

func NewBatchExecutor() *BatchExecutor {
	return &BatchExecutor{chunkSize: ChunkSize}
}

// chunk splits items into sublists of at most size elements, preserving order.
func chunk[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for size < len(items) {
		chunks = append(chunks, items[:size])
		items = items[size:]
	}
	return append(chunks, items)
}

// Insert writes records as one multi-row upsert per chunk. Conflicting ids
// are overwritten in place (minus created_at), which makes a re-submitted
// create behave as an upsert-by-id rather than a duplicate.
func (e *BatchExecutor) Insert(ctx context.Context, db Querier, table string, columns []string, records []Record) error {
	for _, ck := range chunk(records, e.chunkSize) {
		sql, args := insertStatement(table, columns, ck)
		tag, err := db.Exec(ctx, sql, args...)
		if err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
		if tag.RowsAffected() != int64(len(ck)) {
			return fmt.Errorf("insert into %s affected %d of %d rows: %w",
				table, tag.RowsAffected(), len(ck), ErrRowCountMismatch)
		}
	}
	return nil
}

// Update issues one statement per record, batched per chunk into a single
// round trip. Set-lists differ per row only in values, never in shape, so
// every statement in the batch shares the same SQL text.
func (e *BatchExecutor) Update(ctx context.Context, db Querier, table string, setColumns []string, tenantID string, records []Record) error {
	sql := updateStatement(table, setColumns)
	for _, ck := range chunk(records, e.chunkSize) {
		b := &pgx.Batch{}
		for _, rec := range ck {
			args := make([]any, 0, len(setColumns)+2)
			for _, col := range setColumns {
				args = append(args, rec[col])
			}
			args = append(args, tenantID, rec.ID())
			b.Queue(sql, args...)
		}
		affected, err := execBatch(ctx, db, b)
		if err != nil {
			return fmt.Errorf("failed to update %s: %w", table, err)
		}
		if affected != int64(len(ck)) {
			return fmt.Errorf("update of %s affected %d of %d rows: %w",
				table, affected, len(ck), ErrRowCountMismatch)
		}
	}
	return nil
}

// Delete removes the given ids scoped to the tenant, one statement per chunk.
// Every requested id must have existed for this tenant; fewer deletions than
// ids is a row-count mismatch.
func (e *BatchExecutor) Delete(ctx context.Context, db Querier, table string, tenantID string, ids []string) error {
	for _, ck := range chunk(ids, e.chunkSize) {
		sql := fmt.Sprintf(`DELETE FROM %s WHERE tenant_id = $1 AND id = ANY($2)`, table)
		tag, err := db.Exec(ctx, sql, tenantID, ck)
		if err != nil {
			return fmt.Errorf("failed to delete from %s: %w", table, err)
		}
		if tag.RowsAffected() != int64(len(ck)) {
			return fmt.Errorf("delete from %s affected %d of %d rows: %w",
				table, tag.RowsAffected(), len(ck), ErrRowCountMismatch)
		}
	}
	return nil
}

// execBatch runs a pgx batch to completion and sums affected rows. The batch
// is always drained before Close so the connection stays usable.
func execBatch(ctx context.Context, db Querier, b *pgx.Batch) (int64, error) {
	br := db.SendBatch(ctx, b)
	var affected int64
	var firstErr error
	for i := 0; i < b.Len(); i++ {
		tag, err := br.Exec()
		if err != nil && firstErr == nil {
			firstErr = err
		}
		affected += tag.RowsAffected()
	}
	if err := br.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return affected, firstErr
}

// insertStatement builds a multi-row upsert. Parameter order follows the
// adapter's canonical column order; every record in a chunk must share that
// shape (adapters guarantee it — a violation is a programming error).
func insertStatement(table string, columns []string, records []Record) (string, []any) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ", table, strings.Join(columns, ", "))

	args := make([]any, 0, len(records)*len(columns))
	p := 1
	for i, rec := range records {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for j, col := range columns {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", p)
			p++
			args = append(args, rec[col])
		}
		sb.WriteByte(')')
	}

	// Last write wins on id collision; created_at stays immutable.
	sb.WriteString(" ON CONFLICT (tenant_id, id) DO UPDATE SET ")
	first := true
	for _, col := range columns {
		if col == "id" || col == "tenant_id" || col == "created_at" {
			continue
		}
		if !first {
			sb.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&sb, "%s = EXCLUDED.%s", col, col)
	}

	return sb.String(), args
}

// updateStatement builds the shared per-record UPDATE text. The final two
// placeholders are tenant_id and id.
func updateStatement(table string, setColumns []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "UPDATE %s SET ", table)
	for i, col := range setColumns {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s = $%d", col, i+1)
	}
	fmt.Fprintf(&sb, " WHERE tenant_id = $%d AND id = $%d", len(setColumns)+1, len(setColumns)+2)
	return sb.String()
}
