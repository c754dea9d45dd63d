package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/oksasatya/supabase-auth-api/internal/domain/entity"
	"github.com/oksasatya/supabase-auth-api/internal/domain/repository"
)

// ErrNoIdentity means the provider answered successfully without a user.
var ErrNoIdentity = errors.New("identity provider returned no user")

// AuthAPI is the GoTrue identity provider.
type AuthAPI struct {
	c *Client
}

var _ repository.IdentityProvider = (*AuthAPI)(nil)

type gotrueUser struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
}

func (u gotrueUser) identity() entity.Identity {
	return entity.Identity{ID: u.ID, Email: u.Email, Metadata: u.UserMetadata}
}

// tokenResponse is the session bundle; only the parts read here are mapped,
// the raw bytes are what callers receive.
type tokenResponse struct {
	AccessToken string      `json:"access_token"`
	User        *gotrueUser `json:"user"`
}

// SignInWithPassword exchanges email/password for a session.
func (a *AuthAPI) SignInWithPassword(ctx context.Context, creds entity.Credentials) (*entity.AuthResult, error) {
	r, err := a.c.do(ctx, call{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"password"}},
		body:   map[string]string{"email": creds.Email, "password": creds.Password},
	})
	if err != nil {
		return nil, err
	}
	if !r.ok() {
		e := authError(r)
		if r.status == http.StatusBadRequest {
			e.Kind = repository.KindInvalidCredentials
		}
		return nil, e
	}

	var tok tokenResponse
	if err := json.Unmarshal(r.body, &tok); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if tok.User == nil || tok.User.ID == "" {
		return nil, ErrNoIdentity
	}
	return &entity.AuthResult{Identity: tok.User.identity(), Session: json.RawMessage(r.body)}, nil
}

// SignUp creates an identity. metadata is stored as the identity's user
// metadata. When the project requires email confirmation the provider
// returns the bare user and no session.
func (a *AuthAPI) SignUp(ctx context.Context, creds entity.Credentials, metadata map[string]any) (*entity.AuthResult, error) {
	body := map[string]any{"email": creds.Email, "password": creds.Password}
	if len(metadata) > 0 {
		body["data"] = metadata
	}
	r, err := a.c.do(ctx, call{method: http.MethodPost, path: "/auth/v1/signup", body: body})
	if err != nil {
		return nil, err
	}
	if !r.ok() {
		return nil, authError(r)
	}

	var tok tokenResponse
	if err := json.Unmarshal(r.body, &tok); err != nil {
		return nil, fmt.Errorf("decode signup response: %w", err)
	}
	if tok.AccessToken != "" {
		if tok.User == nil || tok.User.ID == "" {
			return nil, ErrNoIdentity
		}
		return &entity.AuthResult{Identity: tok.User.identity(), Session: json.RawMessage(r.body)}, nil
	}

	var u gotrueUser
	if err := json.Unmarshal(r.body, &u); err != nil {
		return nil, fmt.Errorf("decode signup user: %w", err)
	}
	if u.ID == "" {
		return nil, ErrNoIdentity
	}
	return &entity.AuthResult{Identity: u.identity()}, nil
}

// GetUser resolves the identity a bearer token belongs to.
func (a *AuthAPI) GetUser(ctx context.Context, token string) (*entity.Identity, error) {
	r, err := a.c.do(ctx, call{method: http.MethodGet, path: "/auth/v1/user", bearer: token})
	if err != nil {
		return nil, err
	}
	if !r.ok() {
		return nil, authError(r)
	}
	var u gotrueUser
	if err := json.Unmarshal(r.body, &u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	if u.ID == "" {
		return nil, ErrNoIdentity
	}
	ident := u.identity()
	return &ident, nil
}
