package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/oksasatya/supabase-auth-api/internal/domain/entity"
	"github.com/oksasatya/supabase-auth-api/internal/domain/repository"
)

const (
	acceptSingleObject   = "application/vnd.pgrst.object+json"
	preferRepresentation = "return=representation"
)

// UserTable is the profile table served by PostgREST.
type UserTable struct {
	c    *Client
	name string
}

var _ repository.UserRepository = (*UserTable)(nil)

// profileRow is the JSON shape of a users row. Nullable columns stay nil.
type profileRow struct {
	ID          string   `json:"id"`
	Username    *string  `json:"username"`
	Email       *string  `json:"email"`
	Balance     *float64 `json:"balance"`
	Role        *string  `json:"role"`
	Permissions []string `json:"permissions"`
	CreatedAt   string   `json:"created_at"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999-07",
	"2006-01-02 15:04:05.999999",
}

func parseTimestamp(s string) time.Time {
	for _, l := range timestampLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func (r profileRow) profile() *entity.UserProfile {
	return &entity.UserProfile{
		ID:          r.ID,
		Username:    r.Username,
		Email:       r.Email,
		Balance:     r.Balance,
		Role:        r.Role,
		Permissions: r.Permissions,
		CreatedAt:   parseTimestamp(r.CreatedAt),
	}
}

func (t *UserTable) path() string { return "/rest/v1/" + url.PathEscape(t.name) }

func (t *UserTable) single(ctx context.Context, in call) (*entity.UserProfile, error) {
	if in.headers == nil {
		in.headers = map[string]string{}
	}
	in.headers["Accept"] = acceptSingleObject
	r, err := t.c.do(ctx, in)
	if err != nil {
		return nil, err
	}
	if !r.ok() {
		return nil, restError(r)
	}
	var row profileRow
	if err := json.Unmarshal(r.body, &row); err != nil {
		return nil, fmt.Errorf("decode %s row: %w", t.name, err)
	}
	return row.profile(), nil
}

// Create inserts p and returns the stored row. Permissions are left to the
// column default.
func (t *UserTable) Create(ctx context.Context, p *entity.UserProfile) (*entity.UserProfile, error) {
	row := map[string]any{
		"id":         p.ID,
		"username":   p.Username,
		"email":      p.Email,
		"balance":    p.Balance,
		"role":       p.Role,
		"created_at": p.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
	return t.single(ctx, call{
		method:  http.MethodPost,
		path:    t.path(),
		query:   url.Values{"select": {"*"}},
		headers: map[string]string{"Prefer": preferRepresentation},
		body:    row,
	})
}

func (t *UserTable) GetByID(ctx context.Context, id string) (*entity.UserProfile, error) {
	return t.single(ctx, call{
		method: http.MethodGet,
		path:   t.path(),
		query:  url.Values{"select": {"*"}, "id": {"eq." + id}},
	})
}

// Update patches the row with fields exactly as given.
func (t *UserTable) Update(ctx context.Context, id string, fields map[string]any) (*entity.UserProfile, error) {
	return t.single(ctx, call{
		method:  http.MethodPatch,
		path:    t.path(),
		query:   url.Values{"select": {"*"}, "id": {"eq." + id}},
		headers: map[string]string{"Prefer": preferRepresentation},
		body:    fields,
	})
}
