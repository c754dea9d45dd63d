package repository

import (
	"context"

	"github.com/oksasatya/supabase-auth-api/internal/domain/entity"
)

// UserRepository is the record store holding one profile row per identity.
type UserRepository interface {
	Create(ctx context.Context, p *entity.UserProfile) (*entity.UserProfile, error)
	GetByID(ctx context.Context, id string) (*entity.UserProfile, error)
	// Update writes fields as given and returns the refreshed row.
	Update(ctx context.Context, id string, fields map[string]any) (*entity.UserProfile, error)
}
