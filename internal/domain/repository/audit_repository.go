package repository

import "context"

// AuditEntry is one row of the auth audit trail.
type AuditEntry struct {
	UserID    string
	Email     string
	Action    string
	IP        string
	UserAgent string
	Metadata  map[string]any
}

type AuditRepository interface {
	Insert(ctx context.Context, e AuditEntry) error
}
