package models

import "time"

// Tenant is the isolation boundary: every synchronizable record and every
// tombstone belongs to exactly one tenant.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TenantMember links a user to a tenant. Membership is what the access
// guard checks before any sync call proceeds.
type TenantMember struct {
	TenantID string    `json:"tenant_id"`
	UserID   string    `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}
