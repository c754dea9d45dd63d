package redisstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/supabase-auth-api/internal/domain/entity"
	"github.com/oksasatya/supabase-auth-api/internal/domain/repository"
)

func TestDecodeOrphansSortsOldestFirst(t *testing.T) {
	t.Parallel()

	raw := map[string]string{
		"b": `{"identity_id":"b","email":"b@x.io","created_at":"2024-05-02T00:00:00Z"}`,
		"a": `{"identity_id":"a","email":"a@x.io","created_at":"2024-05-01T00:00:00Z"}`,
		"c": `{"email":"c@x.io","created_at":"2024-05-02T00:00:00Z"}`,
	}
	got, err := decodeOrphans(raw)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{got[0].IdentityID, got[1].IdentityID, got[2].IdentityID})
}

func TestDecodeOrphansRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := decodeOrphans(map[string]string{"x": "not json"})
	assert.Error(t, err)
}

// TestOrphanLedgerRoundTrip runs against a live server when TEST_REDIS_ADDR is set.
func TestOrphanLedgerRoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx := context.Background()
	key := "test:orphans:" + time.Now().Format("150405.000000")
	t.Cleanup(func() { rdb.Del(ctx, key) })

	l := NewOrphanLedger(rdb, key)
	o := entity.OrphanedIdentity{IdentityID: "u1", Email: "a@b.c", Username: "ann", Reason: "duplicate key", CreatedAt: time.Now().UTC()}
	require.NoError(t, l.Add(ctx, o))

	got, err := l.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ann", got[0].Username)

	require.NoError(t, l.Remove(ctx, "u1"))
	err = l.Remove(ctx, "u1")
	e, ok := repository.AsError(err)
	require.True(t, ok)
	assert.Equal(t, repository.KindNotFound, e.Kind)
}
