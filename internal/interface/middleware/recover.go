package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/supabase-auth-api/pkg/response"
)

// Recover answers a panic in the rest of the chain with a 500 carrying the
// route's generic message. The panic value is only logged.
func Recover(logger *logrus.Logger, action, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if logger != nil {
				logger.WithFields(logrus.Fields{
					"request_id": c.GetString(RequestIDKey),
					"panic":      fmt.Sprint(rec),
				}).Error(action)
			}
			if c.Writer.Written() {
				c.Abort()
				return
			}
			response.Abort(c, http.StatusInternalServerError, message)
		}()
		c.Next()
	}
}
