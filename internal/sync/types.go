package sync

// Record is a synchronizable entity as it travels over the wire: a flat map
// of column name to value. Adapters canonicalize raw client records down to
// the columns their table actually persists.
type Record map[string]any

// ID returns the record's id field, or "" if missing or not a string.
func (r Record) ID() string {
	id, _ := r["id"].(string)
	return id
}

// ChangeSet groups the changes for one entity type exchanged during sync.
// An id appears in at most one of Created/Updated; Deleted carries ids only.
type ChangeSet struct {
	Created []Record `json:"created"`
	Updated []Record `json:"updated"`
	Deleted []string `json:"deleted"`
}

// PullRequest asks for every change visible after the client's watermark.
// A nil or non-positive LastPulledAt, or Replacement=true, forces a full
// resync.
type PullRequest struct {
	LastPulledAt *int64 `json:"last_pulled_at"`
	Replacement  bool   `json:"replacement"`
}

// ReplacementStrategy marks a pull response produced with full-resync
// semantics. Clients must wipe local state before applying such a response.
const ReplacementStrategy = "replacement"

// PullResponse carries the per-entity change sets plus the server timestamp
// the client must use as its next watermark.
type PullResponse struct {
	Changes             map[string]*ChangeSet `json:"changes"`
	Timestamp           int64                 `json:"timestamp"`
	ReplacementStrategy string                `json:"replacement_strategy,omitempty"`
}

// PushRequest carries the client's local edits. LastPulledAt is informational
// only; no conflict detection is performed (last write wins).
type PushRequest struct {
	LastPulledAt *int64                `json:"last_pulled_at"`
	Changes      map[string]*ChangeSet `json:"changes"`
}

// EntityResult reports the outcome for one entity type of a push.
type EntityResult struct {
	Entity string `json:"entity"`
	OK     bool   `json:"ok"`
}

// PushResponse lists per-entity outcomes in the order the entity types were
// processed. A push either commits everything or nothing, so every listed
// entry has OK=true; a failed push returns an error instead.
type PushResponse struct {
	Applied []EntityResult `json:"applied"`
}
