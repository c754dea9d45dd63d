package repository

import (
	"context"

	"github.com/oksasatya/supabase-auth-api/internal/domain/entity"
)

// OrphanRepository keeps identities created at signup whose profile row was
// never written, for manual reconciliation.
type OrphanRepository interface {
	Add(ctx context.Context, o entity.OrphanedIdentity) error
	List(ctx context.Context) ([]entity.OrphanedIdentity, error)
	Remove(ctx context.Context, identityID string) error
}
