package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/supabase-auth-api/config"
	"github.com/oksasatya/supabase-auth-api/internal/application"
	"github.com/oksasatya/supabase-auth-api/internal/domain/entity"
	repo "github.com/oksasatya/supabase-auth-api/internal/domain/repository"
	"github.com/oksasatya/supabase-auth-api/internal/interface/middleware"
	"github.com/oksasatya/supabase-auth-api/pkg/helpers"
	"github.com/oksasatya/supabase-auth-api/pkg/mailer"
	tpl "github.com/oksasatya/supabase-auth-api/pkg/mailer/templates"
	"github.com/oksasatya/supabase-auth-api/pkg/response"
	"github.com/oksasatya/supabase-auth-api/pkg/validation"
)

const (
	msgMissingCredentials = "Missing email or password"
	msgInvalidCredentials = "Invalid credentials"
	msgProfileNotFound    = "User profile not found"
	MsgLoginFailed        = "Login failed"
	msgMissingFields      = "Missing required fields"
	MsgSignupFailed       = "Signup failed"
)

type AuthHandler struct {
	base
	Service   *application.Service
	Publisher Publisher // optional
	Cfg       *config.Config
}

func NewAuthHandler(svc *application.Service, audit repo.AuditRepository, pub Publisher, cfg *config.Config, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		base:      base{Audit: audit, Logger: logger},
		Service:   svc,
		Publisher: pub,
		Cfg:       cfg,
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type signupRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logInvalid(c, err)
		response.Error(c, http.StatusBadRequest, msgMissingCredentials)
		return
	}

	res, err := h.Service.Login(c.Request.Context(), entity.Credentials{Email: req.Email, Password: req.Password})
	switch {
	case err == nil:
	case errors.Is(err, application.ErrInvalidCredentials):
		h.record(c, "", req.Email, ActionLoginFailed, map[string]any{"reason": "invalid_credentials"})
		response.Error(c, http.StatusUnauthorized, msgInvalidCredentials)
		return
	case errors.Is(err, application.ErrProfileNotFound):
		h.record(c, "", req.Email, ActionLoginFailed, map[string]any{"reason": "profile_not_found"})
		response.Error(c, http.StatusBadRequest, msgProfileNotFound)
		return
	default:
		h.fail(c, "Login error", MsgLoginFailed, err)
		return
	}

	h.record(c, res.Profile.ID, res.Profile.GetEmail(), ActionLoginSuccess, nil)
	h.notify(c, tpl.LoginNotification, res.Profile.GetUsername(), res.Profile.GetEmail())
	response.WithSession(c, http.StatusOK, presentUser(res.Profile), res.Session)
}

// Signup POST /api/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logInvalid(c, err)
		response.Error(c, http.StatusBadRequest, msgMissingFields)
		return
	}

	res, err := h.Service.Signup(c.Request.Context(), req.Username, entity.Credentials{Email: req.Email, Password: req.Password})
	switch {
	case err == nil:
	case errors.Is(err, application.ErrIdentityRejected):
		h.record(c, "", req.Email, ActionSignupFailed, map[string]any{"reason": repo.MessageOf(err)})
		response.Error(c, http.StatusBadRequest, repo.MessageOf(err))
		return
	case errors.Is(err, application.ErrProfileWrite):
		h.record(c, "", req.Email, ActionSignupOrphaned, map[string]any{"reason": repo.MessageOf(err)})
		response.Error(c, http.StatusBadRequest, repo.MessageOf(err))
		return
	default:
		h.fail(c, "Signup error", MsgSignupFailed, err)
		return
	}

	h.record(c, res.Profile.ID, res.Profile.GetEmail(), ActionSignupSuccess, map[string]any{"session_issued": res.Session != nil})
	h.notify(c, tpl.Welcome, res.Profile.GetUsername(), res.Profile.GetEmail())
	response.WithSession(c, http.StatusOK, presentNewUser(res.Profile), res.Session)
}

func (h *AuthHandler) logInvalid(c *gin.Context, err error) {
	if h.Logger == nil {
		return
	}
	h.Logger.WithFields(logrus.Fields{
		"request_id": c.GetString(middleware.RequestIDKey),
		"path":       c.FullPath(),
		"details":    validation.ToDetails(err),
	}).Debug("invalid request body")
}

// notify queues a templated email when sending is enabled.
func (h *AuthHandler) notify(c *gin.Context, template, username, email string) {
	if h.Publisher == nil || h.Cfg == nil || !h.Cfg.MailSendEnabled || email == "" {
		return
	}
	var data map[string]any
	opts := []tpl.Option{
		tpl.WithIP(middleware.ClientIP(c)),
		tpl.WithUserAgent(c.GetHeader("User-Agent")),
		tpl.WithTime(time.Now()),
	}
	switch template {
	case tpl.Welcome:
		data = tpl.NewWelcomeData(h.Cfg, username, email, opts...)
	default:
		data = tpl.NewLoginNotificationData(h.Cfg, username, email, opts...)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), sideEffectTimeout)
	defer cancel()
	if err := h.Publisher.PublishJSON(ctx, mailer.NewTemplateJob(email, template, data)); err != nil {
		helpers.LogWarn(h.Logger, "queue email failed", err, logrus.Fields{
			"request_id": c.GetString(middleware.RequestIDKey),
			"template":   template,
		})
	}
}
