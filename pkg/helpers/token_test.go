package helpers

import (
	"bytes"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestNewTokenInspectorDisabledWithoutSecret(t *testing.T) {
	t.Parallel()
	assert.Nil(t, NewTokenInspector(""))
}

func TestTokenInspector(t *testing.T) {
	t.Parallel()

	secret := []byte("s3cret")
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	in := NewTokenInspector(string(secret))
	in.now = func() time.Time { return now }

	valid := TokenClaims{
		Email: "ann@example.com",
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	claims, err := in.Inspect(sign(t, jwt.SigningMethodHS256, secret, valid))
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "ann@example.com", claims.Email)

	expired := valid
	expired.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Minute))
	noExpiry := valid
	noExpiry.ExpiresAt = nil
	noSubject := valid
	noSubject.Subject = ""

	tests := map[string]string{
		"empty":        "",
		"garbage":      "not.a.jwt",
		"expired":      sign(t, jwt.SigningMethodHS256, secret, expired),
		"no expiry":    sign(t, jwt.SigningMethodHS256, secret, noExpiry),
		"no subject":   sign(t, jwt.SigningMethodHS256, secret, noSubject),
		"wrong secret": sign(t, jwt.SigningMethodHS256, []byte("other"), valid),
		"wrong alg":    sign(t, jwt.SigningMethodHS512, secret, valid),
	}
	for name, tok := range tests {
		_, err := in.Inspect(tok)
		assert.ErrorIs(t, err, ErrTokenRejected, name)
	}
}

func TestTokenFingerprint(t *testing.T) {
	t.Parallel()

	assert.Empty(t, TokenFingerprint(""))
	a := TokenFingerprint("token-a")
	assert.Len(t, a, 16)
	assert.Equal(t, a, TokenFingerprint("token-a"))
	assert.NotEqual(t, a, TokenFingerprint("token-b"))
	assert.NotContains(t, a, "token")
}

func TestLoggerFormatByEnv(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := newLogger(&buf, "app", "production")
	assert.Equal(t, "info", l.GetLevel().String())
	assert.Contains(t, buf.String(), `"app":"app"`)

	buf.Reset()
	l = newLogger(&buf, "app", "development")
	assert.Equal(t, "debug", l.GetLevel().String())
	assert.Contains(t, buf.String(), "app=app")
}

func TestLogHelpersAreNilSafe(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() {
		LogError(nil, "x", nil, nil)
		LogWarn(nil, "x", nil, nil)
	})
}
