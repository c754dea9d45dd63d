package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/supabase-auth-api/pkg/helpers"
)

func init() { gin.SetMode(gin.TestMode) }

func serve(r *gin.Engine, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	w := serve(r, http.MethodGet, "/", nil)
	id := w.Header().Get(RequestIDHeader)
	require.Len(t, id, 36)
	assert.Equal(t, id, w.Body.String())

	const given = "0b4f3f0e-6d7a-4c43-9f3e-0d2a4f6c8b11"
	w = serve(r, http.MethodGet, "/", http.Header{RequestIDHeader: {given}})
	assert.Equal(t, given, w.Header().Get(RequestIDHeader))

	w = serve(r, http.MethodGet, "/", http.Header{RequestIDHeader: {"<script>"}})
	assert.NotEqual(t, "<script>", w.Header().Get(RequestIDHeader))
}

func TestRealIP(t *testing.T) {
	t.Parallel()

	r := gin.New()
	r.Use(RealIP())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, ClientIP(c)) })

	tests := []struct {
		name   string
		header http.Header
		want   string
	}{
		{"cloudflare", http.Header{"Cf-Connecting-Ip": {"203.0.113.7"}, "X-Forwarded-For": {"198.51.100.1"}}, "203.0.113.7"},
		{"forwarded left-most", http.Header{"X-Forwarded-For": {"198.51.100.1, 10.0.0.1"}}, "198.51.100.1"},
		{"garbage falls through", http.Header{"Cf-Connecting-Ip": {"nope"}, "X-Forwarded-For": {"198.51.100.2"}}, "198.51.100.2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := serve(r, http.MethodGet, "/", tt.header)
			assert.Equal(t, tt.want, w.Body.String())
		})
	}
}

func TestAllowMethods(t *testing.T) {
	t.Parallel()

	reached := 0
	r := gin.New()
	r.Any("/x", AllowMethods(http.MethodPost), func(c *gin.Context) {
		reached++
		c.Status(http.StatusNoContent)
	})

	w := serve(r, http.MethodGet, "/x", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.JSONEq(t, `{"error":"Method not allowed"}`, w.Body.String())
	assert.Equal(t, "POST", w.Header().Get("Allow"))
	assert.Equal(t, 0, reached)

	w = serve(r, http.MethodPost, "/x", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 1, reached)
}

func TestRequireBearer(t *testing.T) {
	t.Parallel()

	r := gin.New()
	r.Any("/me", RequireBearer(), func(c *gin.Context) { c.String(http.StatusOK, "[%s]", BearerToken(c)) })

	w := serve(r, http.MethodGet, "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"No authorization token"}`, w.Body.String())

	tests := map[string]string{
		"Bearer abc.def":  "[abc.def]",
		"bearer   abc":    "[abc]",
		"Bearer":          "[]",
		"raw-token-value": "[raw-token-value]",
	}
	for header, want := range tests {
		w := serve(r, http.MethodDelete, "/me", http.Header{"Authorization": {header}})
		assert.Equal(t, http.StatusOK, w.Code, header)
		assert.Equal(t, want, w.Body.String(), header)
	}
}

func TestRecover(t *testing.T) {
	t.Parallel()

	r := gin.New()
	r.GET("/boom", Recover(helpers.NewDiscardLogger(), "boom error", "Request failed"), func(*gin.Context) {
		panic("kaput")
	})

	w := serve(r, http.MethodGet, "/boom", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Request failed"}`, w.Body.String())
}

func TestAccessLogPassesThrough(t *testing.T) {
	t.Parallel()

	r := gin.New()
	r.Use(AccessLog(helpers.NewDiscardLogger()))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	assert.Equal(t, http.StatusTeapot, serve(r, http.MethodGet, "/", nil).Code)
}
