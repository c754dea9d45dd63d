package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/supabase-auth-api/pkg/response"
)

const msgMethodNotAllowed = "Method not allowed"

// AllowMethods aborts with 405 for any method outside methods. It runs
// before the handler so a refused request never reaches a collaborator.
func AllowMethods(methods ...string) gin.HandlerFunc {
	allow := strings.Join(methods, ", ")
	return func(c *gin.Context) {
		if !slices.Contains(methods, c.Request.Method) {
			c.Header("Allow", allow)
			response.Abort(c, http.StatusMethodNotAllowed, msgMethodNotAllowed)
			return
		}
		c.Next()
	}
}
