package templates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/supabase-auth-api/config"
)

func TestRenderKnownTemplates(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{AppName: "Wallet", CompanyName: "Acme", SupportURL: "https://acme.test/help"}
	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

	for _, name := range []string{Welcome, LoginNotification} {
		require.True(t, Known(name))
		data := ToMap(NewBaseEmailData(cfg, name, "ann", "ann@example.com",
			WithIP("203.0.113.7"), WithUserAgent("curl/8"), WithTime(at)))

		subject, text, html, err := Render(name, data)
		require.NoError(t, err, name)
		assert.NotEmpty(t, subject, name)
		assert.NotContains(t, subject, "\n", name)
		assert.Contains(t, text, "ann", name)
		assert.Contains(t, html, "Acme", name)
		assert.NotContains(t, text, "<no value>", name)
	}
	assert.False(t, Known("password_reset"))
}

func TestDefaultFn(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "x", defaultFn("x", ""))
	assert.Equal(t, "x", defaultFn("x", "   "))
	assert.Equal(t, "x", defaultFn("x", nil))
	assert.Equal(t, "x", defaultFn("x", 0))
	assert.Equal(t, "v", defaultFn("x", "v"))
	assert.Equal(t, 3, defaultFn("x", 3))
}
