package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/supabase-auth-api/internal/domain/repository"
)

type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) Insert(ctx context.Context, e repository.AuditEntry) error {
	var meta []byte
	if len(e.Metadata) > 0 {
		b, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("encode audit metadata: %w", err)
		}
		meta = b
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_logs (user_id, email, action, ip, user_agent, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, nullIfEmpty(e.UserID), nullIfEmpty(e.Email), e.Action, nullIfEmpty(e.IP), nullIfEmpty(e.UserAgent), meta)
	return err
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

var _ repository.AuditRepository = (*AuditRepository)(nil)
