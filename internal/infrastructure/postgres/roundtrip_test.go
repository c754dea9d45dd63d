package postgres

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/supabase-auth-api/internal/domain/entity"
	"github.com/oksasatya/supabase-auth-api/internal/domain/repository"
	"github.com/oksasatya/supabase-auth-api/pkg/helpers"
)

// testPool migrates and connects to the database named by TEST_DATABASE_URL.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	require.NoError(t, RunMigrations(dsn, "../../../db/migrations", helpers.NewDiscardLogger()))
	pool, err := NewPool(context.Background(), dsn, 4, 0, time.Minute)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func requireKind(t *testing.T, want repository.Kind, err error) {
	t.Helper()
	e, ok := repository.AsError(err)
	require.True(t, ok, "%v", err)
	assert.Equal(t, want, e.Kind, e.Message)
}

func TestUserRepositoryRoundTrip(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	users := NewUserRepository(pool, "")

	id := uuid.NewString()
	name := "rt_" + id[:8]
	t.Cleanup(func() { _, _ = pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id) })

	created, err := users.Create(ctx, entity.NewProfile(id, name, name+"@example.com", time.Now()))
	require.NoError(t, err)
	assert.Equal(t, id, created.ID)
	assert.Equal(t, entity.RoleCustomer, created.GetRole())
	assert.Zero(t, created.GetBalance())
	assert.Empty(t, created.Permissions)

	got, err := users.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, name, got.GetUsername())

	got, err = users.Update(ctx, id, map[string]any{
		"balance":     json.Number("12.34"),
		"permissions": []any{"read", `a"b`},
	})
	require.NoError(t, err)
	assert.InDelta(t, 12.34, got.GetBalance(), 0.0001)
	assert.Equal(t, []string{"read", `a"b`}, got.Permissions)

	got, err = users.Update(ctx, id, map[string]any{"permissions": nil})
	require.NoError(t, err)
	assert.Nil(t, got.Permissions)

	got, err = users.Update(ctx, id, map[string]any{})
	require.NoError(t, err)
	assert.InDelta(t, 12.34, got.GetBalance(), 0.0001)

	_, err = users.Update(ctx, id, map[string]any{"balance": "lots"})
	requireKind(t, repository.KindRejected, err)

	_, err = users.Update(ctx, id, map[string]any{"nickname": "x"})
	requireKind(t, repository.KindRejected, err)

	_, err = users.GetByID(ctx, uuid.NewString())
	requireKind(t, repository.KindNotFound, err)

	_, err = users.Create(ctx, entity.NewProfile(uuid.NewString(), name, "other-"+name+"@example.com", time.Now()))
	requireKind(t, repository.KindConflict, err)
}

func TestAuditRepositoryInsert(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	audit := NewAuditRepository(pool)

	email := "audit-" + uuid.NewString() + "@example.com"
	t.Cleanup(func() { _, _ = pool.Exec(ctx, `DELETE FROM audit_logs WHERE email = $1`, email) })

	require.NoError(t, audit.Insert(ctx, repository.AuditEntry{
		Email:    email,
		Action:   "login_failed",
		Metadata: map[string]any{"reason": "invalid_credentials"},
	}))
	require.NoError(t, audit.Insert(ctx, repository.AuditEntry{Email: email, Action: "token_rejected"}))

	var (
		count   int
		userIDs int
		reason  string
	)
	require.NoError(t, pool.QueryRow(ctx, `
		SELECT count(*), count(user_id), max(metadata->>'reason')
		FROM audit_logs WHERE email = $1
	`, email).Scan(&count, &userIDs, &reason))
	assert.Equal(t, 2, count)
	assert.Zero(t, userIDs)
	assert.Equal(t, "invalid_credentials", reason)
}
