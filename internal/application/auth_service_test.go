package application

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/supabase-auth-api/internal/domain/entity"
	"github.com/oksasatya/supabase-auth-api/internal/domain/repository"
	"github.com/oksasatya/supabase-auth-api/internal/domain/repository/repotest"
	"github.com/oksasatya/supabase-auth-api/pkg/helpers"
)

type fixture struct {
	idp     *repotest.Identity
	users   *repotest.Users
	orphans *repotest.Orphans
	svc     *Service
}

func newFixture(t *testing.T, writable []string, tokens *helpers.TokenInspector) *fixture {
	t.Helper()
	f := &fixture{idp: repotest.NewIdentity(), users: repotest.NewUsers(), orphans: &repotest.Orphans{}}
	f.svc = NewService(f.idp, f.users, f.orphans, tokens, writable, helpers.NewDiscardLogger())
	f.svc.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }

	f.idp.AddAccount("u1", "ann@example.com", "secret", "tok-1")
	f.users.Put(repotest.Profile("u1", "ann", "ann@example.com", 0))
	return f
}

func TestLogin(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil, nil)

	res, err := f.svc.Login(context.Background(), entity.Credentials{Email: "ann@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "ann", res.Profile.GetUsername())
	assert.JSONEq(t, string(f.idp.Session), string(res.Session))
}

func TestLoginInvalidCredentials(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil, nil)

	_, err := f.svc.Login(context.Background(), entity.Credentials{Email: "ann@example.com", Password: "nope"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, 0, f.users.CallCount())
}

func TestLoginProviderOutageIsUnexpected(t *testing.T) {
	t.Parallel()

	for name, idpErr := range map[string]error{
		"bad gateway": &repository.Error{Kind: repository.KindUnavailable, Status: http.StatusBadGateway},
		"transport":   errors.New("dial tcp: connection refused"),
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, nil, nil)
			f.idp.Err = idpErr

			_, err := f.svc.Login(context.Background(), entity.Credentials{Email: "ann@example.com", Password: "secret"})
			require.Error(t, err)
			assert.NotErrorIs(t, err, ErrInvalidCredentials)
			assert.Zero(t, f.users.CallCount())
		})
	}
}

func TestLoginWithoutProfile(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil, nil)
	f.idp.AddAccount("u2", "bob@example.com", "pw", "")

	res, err := f.svc.Login(context.Background(), entity.Credentials{Email: "bob@example.com", Password: "pw"})
	assert.ErrorIs(t, err, ErrProfileNotFound)
	assert.Nil(t, res)
}

func TestSignup(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil, nil)

	res, err := f.svc.Signup(context.Background(), "cat", entity.Credentials{Email: "cat@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, res.Identity.ID, res.Profile.ID)
	assert.Equal(t, "cat", res.Identity.Metadata["username"])
	assert.Zero(t, res.Profile.GetBalance())
	assert.Equal(t, entity.RoleCustomer, res.Profile.GetRole())
	assert.Equal(t, f.svc.now(), res.Profile.CreatedAt)
	assert.NotNil(t, res.Session)
	assert.Empty(t, f.orphans.Entries)
}

func TestSignupRejectedByProvider(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil, nil)

	_, err := f.svc.Signup(context.Background(), "ann2", entity.Credentials{Email: "ann@example.com", Password: "pw"})
	assert.ErrorIs(t, err, ErrIdentityRejected)
	assert.Equal(t, "User already registered", repository.MessageOf(err))
	assert.Equal(t, 0, f.users.CallCount())
}

func TestSignupProfileInsertFailureKeepsIdentity(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil, nil)
	f.users.CreateErr = &repository.Error{Kind: repository.KindConflict, Code: "23505", Message: "duplicate key value violates unique constraint"}

	_, err := f.svc.Signup(context.Background(), "ann", entity.Credentials{Email: "dup@example.com", Password: "pw"})
	assert.ErrorIs(t, err, ErrProfileWrite)
	assert.Equal(t, "duplicate key value violates unique constraint", repository.MessageOf(err))

	_, signInErr := f.idp.SignInWithPassword(context.Background(), entity.Credentials{Email: "dup@example.com", Password: "pw"})
	assert.NoError(t, signInErr, "identity must not be rolled back")

	require.Len(t, f.orphans.Entries, 1)
	assert.Equal(t, "id-dup@example.com", f.orphans.Entries[0].IdentityID)
	assert.Equal(t, "ann", f.orphans.Entries[0].Username)
}

func TestSignupStoreTransportFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil, nil)
	f.users.CreateErr = errors.New("connection reset")

	_, err := f.svc.Signup(context.Background(), "dan", entity.Credentials{Email: "dan@example.com", Password: "pw"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrProfileWrite)
	assert.Len(t, f.orphans.Entries, 1)
}

func TestResolveToken(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil, nil)

	ident, err := f.svc.ResolveToken(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "u1", ident.ID)

	_, err = f.svc.ResolveToken(context.Background(), "bogus")
	assert.ErrorIs(t, err, ErrInvalidToken)

	calls := f.idp.CallCount()
	_, err = f.svc.ResolveToken(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Equal(t, calls, f.idp.CallCount())
}

func TestResolveTokenLocalPrecheck(t *testing.T) {
	t.Parallel()
	const secret = "jwt-secret"
	f := newFixture(t, nil, helpers.NewTokenInspector(secret))

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	f.idp.Tokens[signed] = "u1"

	ident, err := f.svc.ResolveToken(context.Background(), signed)
	require.NoError(t, err)
	assert.Equal(t, "u1", ident.ID)
	assert.Equal(t, 1, f.idp.CallCount())

	_, err = f.svc.ResolveToken(context.Background(), "tok-1")
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Equal(t, 1, f.idp.CallCount(), "malformed token must not reach the provider")
}

func TestGetProfile(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil, nil)

	p, err := f.svc.GetProfile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "ann", p.GetUsername())

	_, err = f.svc.GetProfile(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateProfileWritesFieldsAsGiven(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil, nil)

	p, err := f.svc.UpdateProfile(context.Background(), "u1", map[string]any{"balance": float64(999999)})
	require.NoError(t, err)
	assert.InDelta(t, 999999.0, p.GetBalance(), 0.001)
	assert.Equal(t, "ann", p.GetUsername())

	_, err = f.svc.UpdateProfile(context.Background(), "u1", map[string]any{"nope": 1})
	assert.ErrorIs(t, err, ErrProfileWrite)
}

func TestUpdateProfileAllowList(t *testing.T) {
	t.Parallel()
	f := newFixture(t, []string{"username"}, nil)

	_, err := f.svc.UpdateProfile(context.Background(), "u1", map[string]any{"username": "annie", "role": "admin", "balance": 1.0})
	require.ErrorIs(t, err, ErrFieldNotWritable)
	var nw *NotWritableError
	require.ErrorAs(t, err, &nw)
	assert.Equal(t, "balance", nw.Field)
	assert.Equal(t, 0, f.users.CallCount())

	p, err := f.svc.UpdateProfile(context.Background(), "u1", map[string]any{"username": "annie"})
	require.NoError(t, err)
	assert.Equal(t, "annie", p.GetUsername())
}
