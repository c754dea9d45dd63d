package modules

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	handlers "github.com/oksasatya/supabase-auth-api/internal/interface/http"
	"github.com/oksasatya/supabase-auth-api/internal/interface/middleware"
)

type AuthModule struct {
	Auth   *handlers.AuthHandler
	User   *handlers.UserHandler
	Logger *logrus.Logger
}

func NewAuthModule(auth *handlers.AuthHandler, user *handlers.UserHandler, logger *logrus.Logger) *AuthModule {
	return &AuthModule{Auth: auth, User: user, Logger: logger}
}

// Register mounts the three endpoints on every method so that unsupported
// methods get the JSON 405 instead of a 404.
func (m *AuthModule) Register(rg *gin.RouterGroup) {
	rg.Any("/auth/login",
		middleware.Recover(m.Logger, "Login error", handlers.MsgLoginFailed),
		middleware.AllowMethods(http.MethodPost),
		m.Auth.Login,
	)
	rg.Any("/auth/signup",
		middleware.Recover(m.Logger, "Signup error", handlers.MsgSignupFailed),
		middleware.AllowMethods(http.MethodPost),
		m.Auth.Signup,
	)
	// The token check precedes the method check: every method without a
	// token is a 401.
	rg.Any("/auth/user",
		middleware.Recover(m.Logger, "User API error", handlers.MsgRequestFailed),
		middleware.RequireBearer(),
		middleware.AllowMethods(http.MethodGet, http.MethodPatch),
		m.User.User,
	)
}
