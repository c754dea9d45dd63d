package router

import (
	"github.com/oksasatya/supabase-auth-api/internal/container"
	handlers "github.com/oksasatya/supabase-auth-api/internal/interface/http"
	"github.com/oksasatya/supabase-auth-api/internal/router/modules"
)

// InitModules builds handlers from the container and registers every module.
// Call once at startup, before RegisterAll.
func InitModules(r *Registry, c *container.Container) {
	svc := c.AuthService()
	logger := c.Logger

	auth := handlers.NewAuthHandler(svc, c.Audit(), c.Publisher(), c.Config, logger)
	user := handlers.NewUserHandler(svc, c.Audit(), logger)

	r.Add(modules.NewAuthModule(auth, user, logger))
	r.Add(modules.NewHealthModule())
	if c.Config.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
