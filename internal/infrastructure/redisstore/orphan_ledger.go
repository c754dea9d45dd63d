// Package redisstore keeps the orphaned-identity ledger in a Redis hash keyed
// by identity id.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/supabase-auth-api/internal/domain/entity"
	"github.com/oksasatya/supabase-auth-api/internal/domain/repository"
)

const DefaultOrphanKey = "signup:orphans"

type OrphanLedger struct {
	rdb redis.Cmdable
	key string
}

func NewOrphanLedger(rdb redis.Cmdable, key string) *OrphanLedger {
	if key == "" {
		key = DefaultOrphanKey
	}
	return &OrphanLedger{rdb: rdb, key: key}
}

// Add records o, replacing any earlier entry for the same identity.
func (l *OrphanLedger) Add(ctx context.Context, o entity.OrphanedIdentity) error {
	b, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("encode orphan %s: %w", o.IdentityID, err)
	}
	return l.rdb.HSet(ctx, l.key, o.IdentityID, b).Err()
}

// List returns every entry, oldest first.
func (l *OrphanLedger) List(ctx context.Context) ([]entity.OrphanedIdentity, error) {
	raw, err := l.rdb.HGetAll(ctx, l.key).Result()
	if err != nil {
		return nil, err
	}
	return decodeOrphans(raw)
}

func (l *OrphanLedger) Remove(ctx context.Context, identityID string) error {
	n, err := l.rdb.HDel(ctx, l.key, identityID).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return &repository.Error{Kind: repository.KindNotFound, Message: "no orphan recorded for " + identityID}
	}
	return nil
}

func decodeOrphans(raw map[string]string) ([]entity.OrphanedIdentity, error) {
	out := make([]entity.OrphanedIdentity, 0, len(raw))
	for id, v := range raw {
		var o entity.OrphanedIdentity
		if err := json.Unmarshal([]byte(v), &o); err != nil {
			return nil, fmt.Errorf("decode orphan %s: %w", id, err)
		}
		if o.IdentityID == "" {
			o.IdentityID = id
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].IdentityID < out[j].IdentityID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

var _ repository.OrphanRepository = (*OrphanLedger)(nil)
