package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/oksasatya/supabase-auth-api/config"
	"github.com/oksasatya/supabase-auth-api/internal/application"
	"github.com/oksasatya/supabase-auth-api/internal/container"
	"github.com/oksasatya/supabase-auth-api/internal/domain/entity"
	repo "github.com/oksasatya/supabase-auth-api/internal/domain/repository"
	"github.com/oksasatya/supabase-auth-api/pkg/helpers"
)

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Seeds one demo account through the regular signup path, so the identity
// and its profile row are created exactly as the API would.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c, err := container.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("init: %v", err)
	}
	defer c.Close()

	username := getenv("SEED_USERNAME", "demoUser")
	email := getenv("SEED_EMAIL", "demo@example.com")
	password := getenv("SEED_PASSWORD", "password123")

	res, err := c.AuthService().Signup(ctx, username, entity.Credentials{Email: email, Password: password})
	switch {
	case err == nil:
	case errors.Is(err, application.ErrIdentityRejected):
		fmt.Printf("identity not created (%s); already seeded?\n", repo.MessageOf(err))
		return
	default:
		log.Fatalf("failed to seed user: %v", err)
	}
	fmt.Printf("seeded user: id=%s email=%s username=%s password=%s session=%t\n",
		res.Profile.ID, res.Profile.GetEmail(), res.Profile.GetUsername(), password, res.Session != nil)
}
