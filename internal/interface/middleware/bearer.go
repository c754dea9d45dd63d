package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/supabase-auth-api/pkg/response"
)

const bearerTokenKey = "bearer_token"

// RequireBearer refuses requests without an Authorization header and stores
// the token with its Bearer scheme removed. An empty token is passed on;
// deciding whether it is valid is the handler's job.
func RequireBearer() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := strings.TrimSpace(c.GetHeader("Authorization"))
		if h == "" {
			response.Abort(c, http.StatusUnauthorized, "No authorization token")
			return
		}
		c.Set(bearerTokenKey, stripBearer(h))
		c.Next()
	}
}

func stripBearer(h string) string {
	const scheme = "bearer"
	if strings.EqualFold(h, scheme) {
		return ""
	}
	if len(h) > len(scheme) && strings.EqualFold(h[:len(scheme)], scheme) && h[len(scheme)] == ' ' {
		return strings.TrimSpace(h[len(scheme)+1:])
	}
	return h
}

// BearerToken returns the token stored by RequireBearer.
func BearerToken(c *gin.Context) string {
	return c.GetString(bearerTokenKey)
}
