package sync

import "time"

// The synchronizable entity types of the finance tracker. Each table carries
// id, tenant_id, created_at and updated_at on top of the columns listed here.

func NewAccountsAdapter(deps AdapterDeps) Adapter {
	return newTableAdapter(deps, tableConfig{
		table:   "accounts",
		columns: []string{"id", "name", "account_type"},
		validate: func(rec Record) error {
			return requireStrings(rec, "accounts", "name")
		},
	})
}

func NewCategoriesAdapter(deps AdapterDeps) Adapter {
	return newTableAdapter(deps, tableConfig{
		table:   "categories",
		columns: []string{"id", "name", "color"},
		validate: func(rec Record) error {
			return requireStrings(rec, "categories", "name")
		},
	})
}

func NewSubCategoriesAdapter(deps AdapterDeps) Adapter {
	return newTableAdapter(deps, tableConfig{
		table:   "sub_categories",
		columns: []string{"id", "category_id", "name"},
		validate: func(rec Record) error {
			return requireStrings(rec, "sub_categories", "category_id", "name")
		},
	})
}

func NewTransactionsAdapter(deps AdapterDeps) Adapter {
	return newTableAdapter(deps, tableConfig{
		table:      "transactions",
		columns:    []string{"id", "account_id", "category_id", "sub_category_id", "amount_cents", "note", "occurred_at"},
		intColumns: []string{"amount_cents", "occurred_at"},
		validate: func(rec Record) error {
			if err := requireStrings(rec, "transactions", "account_id"); err != nil {
				return err
			}
			if _, ok := asInt64(rec["amount_cents"]); !ok {
				return &ValidationError{Entity: "transactions", Reason: "amount_cents must be an integer"}
			}
			if _, ok := asInt64(rec["occurred_at"]); !ok {
				return &ValidationError{Entity: "transactions", Reason: "occurred_at must be a timestamp"}
			}
			return nil
		},
	})
}

// DefaultAdapters returns every entity adapter in dependency order: accounts
// and categories before sub-categories and transactions that reference them.
func DefaultAdapters(deps AdapterDeps) []Adapter {
	return []Adapter{
		NewAccountsAdapter(deps),
		NewCategoriesAdapter(deps),
		NewSubCategoriesAdapter(deps),
		NewTransactionsAdapter(deps),
	}
}

// DefaultDeps wires the shared executor, ledger and wall clock.
func DefaultDeps() AdapterDeps {
	return AdapterDeps{
		Exec:   NewBatchExecutor(),
		Ledger: NewTombstoneLedger(),
		Now:    func() int64 { return time.Now().UnixMilli() },
	}
}

func requireStrings(rec Record, entity string, fields ...string) error {
	for _, f := range fields {
		if s, _ := rec[f].(string); s == "" {
			return &ValidationError{Entity: entity, Reason: f + " is required"}
		}
	}
	return nil
}
