package handlers

import (
	"context"
	"expvar"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/supabase-auth-api/internal/domain/entity"
	repo "github.com/oksasatya/supabase-auth-api/internal/domain/repository"
	"github.com/oksasatya/supabase-auth-api/internal/interface/middleware"
	"github.com/oksasatya/supabase-auth-api/pkg/helpers"
	"github.com/oksasatya/supabase-auth-api/pkg/response"
)

// Audit actions.
const (
	ActionLoginSuccess   = "login_success"
	ActionLoginFailed    = "login_failed"
	ActionSignupSuccess  = "signup_success"
	ActionSignupFailed   = "signup_failed"
	ActionSignupOrphaned = "signup_orphaned_identity"
	ActionProfileRead    = "profile_read"
	ActionProfileUpdated = "profile_updated"
	ActionTokenRejected  = "token_rejected"
)

const sideEffectTimeout = 3 * time.Second

// outcomes counts handler results by audit action, served at /api/debug/vars.
var outcomes = expvar.NewMap("auth_outcomes")

// Publisher puts a JSON job on the notification queue.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// base carries what every handler uses besides the service.
type base struct {
	Audit  repo.AuditRepository // optional
	Logger *logrus.Logger
}

// userView is the reshaped profile returned to callers. Null columns are
// rendered as null. Permissions is left out of the signup response.
type userView struct {
	ID          string    `json:"id"`
	Username    *string   `json:"username"`
	Email       *string   `json:"email"`
	Balance     *float64  `json:"balance"`
	Role        *string   `json:"role"`
	Permissions *[]string `json:"permissions,omitempty"`
}

func presentUser(u *entity.UserProfile) userView {
	v := presentNewUser(u)
	perms := u.Permissions
	if perms == nil {
		perms = []string{}
	}
	v.Permissions = &perms
	return v
}

func presentNewUser(u *entity.UserProfile) userView {
	return userView{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Balance:  u.Balance,
		Role:     u.Role,
	}
}

// record writes an audit row and bumps the outcome counter. Audit failures
// never change the response.
func (b *base) record(c *gin.Context, userID, email, action string, metadata map[string]any) {
	outcomes.Add(action, 1)
	if b.Audit == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), sideEffectTimeout)
	defer cancel()
	err := b.Audit.Insert(ctx, repo.AuditEntry{
		UserID:    userID,
		Email:     email,
		Action:    action,
		IP:        middleware.ClientIP(c),
		UserAgent: c.GetHeader("User-Agent"),
		Metadata:  metadata,
	})
	if err != nil {
		helpers.LogWarn(b.Logger, "audit insert failed", err, logrus.Fields{
			"request_id": c.GetString(middleware.RequestIDKey),
			"action":     action,
		})
	}
}

// fail logs an unexpected error and answers 500 with message only.
func (b *base) fail(c *gin.Context, action, message string, err error) {
	helpers.LogError(b.Logger, action, err, logrus.Fields{
		"request_id": c.GetString(middleware.RequestIDKey),
	})
	response.Error(c, http.StatusInternalServerError, message)
}
