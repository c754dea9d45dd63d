package repository

import (
	"context"

	"github.com/oksasatya/supabase-auth-api/internal/domain/entity"
)

// IdentityProvider verifies credentials, creates identities and resolves
// bearer tokens. Session issuance and password handling live behind it.
type IdentityProvider interface {
	SignInWithPassword(ctx context.Context, creds entity.Credentials) (*entity.AuthResult, error)
	SignUp(ctx context.Context, creds entity.Credentials, metadata map[string]any) (*entity.AuthResult, error)
	GetUser(ctx context.Context, token string) (*entity.Identity, error)
}
