package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDeps() AdapterDeps {
	deps := DefaultDeps()
	deps.Now = func() int64 { return 1700000000000 }
	return deps
}

func TestCanonicalize_DropsUnknownAndServerOwnedFields(t *testing.T) {
	a := NewAccountsAdapter(testDeps())

	rec := a.Canonicalize(Record{
		"id":           "a1",
		"name":         "Checking",
		"account_type": "bank",
		"tenant_id":    "someone-elses-tenant",
		"created_at":   int64(123),
		"updated_at":   int64(456),
		"balance":      99.5,
	})

	assert.Equal(t, Record{"id": "a1", "name": "Checking", "account_type": "bank"}, rec)
	assert.NotContains(t, rec, "tenant_id", "client-supplied tenant_id must never survive")
}

func TestCanonicalize_CoercesJSONNumbers(t *testing.T) {
	a := NewTransactionsAdapter(testDeps())

	rec := a.Canonicalize(Record{
		"id":           "tx1",
		"account_id":   "a1",
		"amount_cents": float64(1250),
		"occurred_at":  float64(1700000000000),
	})

	assert.Equal(t, int64(1250), rec["amount_cents"])
	assert.Equal(t, int64(1700000000000), rec["occurred_at"])
}

func TestValidate_RequiresID(t *testing.T) {
	a := NewAccountsAdapter(testDeps())

	err := a.Validate(Record{"name": "Checking"})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "accounts", validationErr.Entity)
}

func TestValidate_EntityRules(t *testing.T) {
	deps := testDeps()

	tests := []struct {
		name    string
		adapter Adapter
		rec     Record
		wantErr bool
	}{
		{"account ok", NewAccountsAdapter(deps), Record{"id": "a1", "name": "Checking"}, false},
		{"account missing name", NewAccountsAdapter(deps), Record{"id": "a1"}, true},
		{"category ok", NewCategoriesAdapter(deps), Record{"id": "c1", "name": "Food"}, false},
		{"sub-category missing parent", NewSubCategoriesAdapter(deps), Record{"id": "s1", "name": "Groceries"}, true},
		{"transaction ok", NewTransactionsAdapter(deps),
			Record{"id": "tx1", "account_id": "a1", "amount_cents": int64(100), "occurred_at": int64(1)}, false},
		{"transaction missing amount", NewTransactionsAdapter(deps),
			Record{"id": "tx1", "account_id": "a1", "occurred_at": int64(1)}, true},
		{"transaction missing account", NewTransactionsAdapter(deps),
			Record{"id": "tx1", "amount_cents": int64(100), "occurred_at": int64(1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.adapter.Validate(tt.rec)
			if tt.wantErr {
				var validationErr *ValidationError
				assert.ErrorAs(t, err, &validationErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRegistry_OrderAndLookup(t *testing.T) {
	registry := NewRegistry(DefaultAdapters(testDeps())...)

	var names []string
	for _, a := range registry.All() {
		names = append(names, a.EntityType())
	}
	assert.Equal(t, []string{"accounts", "categories", "sub_categories", "transactions"}, names)

	_, ok := registry.Get("transactions")
	assert.True(t, ok)
	_, ok = registry.Get("wallets")
	assert.False(t, ok)
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	deps := testDeps()
	registry := NewRegistry(NewAccountsAdapter(deps))
	assert.Panics(t, func() {
		registry.Register(NewAccountsAdapter(deps))
	})
}

func TestNormalizeWatermark(t *testing.T) {
	ts := func(v int64) *int64 { return &v }

	tests := []struct {
		name            string
		req             PullRequest
		want            int64
		wantReplacement bool
	}{
		{"absent", PullRequest{}, 0, true},
		{"zero", PullRequest{LastPulledAt: ts(0)}, 0, true},
		{"negative", PullRequest{LastPulledAt: ts(-5)}, 0, true},
		{"forced replacement", PullRequest{LastPulledAt: ts(42), Replacement: true}, 0, true},
		{"normal", PullRequest{LastPulledAt: ts(42)}, 42, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, replacement := normalizeWatermark(tt.req)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantReplacement, replacement)
		})
	}
}
