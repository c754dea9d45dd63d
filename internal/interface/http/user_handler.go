package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/supabase-auth-api/internal/application"
	"github.com/oksasatya/supabase-auth-api/internal/domain/entity"
	repo "github.com/oksasatya/supabase-auth-api/internal/domain/repository"
	"github.com/oksasatya/supabase-auth-api/internal/interface/middleware"
	"github.com/oksasatya/supabase-auth-api/pkg/helpers"
	"github.com/oksasatya/supabase-auth-api/pkg/response"
)

const (
	msgInvalidToken   = "Invalid token"
	msgUserNotFound   = "User not found"
	msgInvalidPayload = "Invalid update payload"
	MsgRequestFailed  = "Request failed"
)

type UserHandler struct {
	base
	Service *application.Service
}

func NewUserHandler(svc *application.Service, audit repo.AuditRepository, logger *logrus.Logger) *UserHandler {
	return &UserHandler{base: base{Audit: audit, Logger: logger}, Service: svc}
}

// User GET|PATCH /api/auth/user. RequireBearer and AllowMethods run first.
func (h *UserHandler) User(c *gin.Context) {
	token := middleware.BearerToken(c)
	ident, err := h.Service.ResolveToken(c.Request.Context(), token)
	if err != nil {
		h.rejectToken(c, token, err)
		return
	}

	switch c.Request.Method {
	case http.MethodGet:
		h.get(c, ident)
	case http.MethodPatch:
		h.patch(c, ident)
	default:
		response.Error(c, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *UserHandler) rejectToken(c *gin.Context, token string, err error) {
	if !errors.Is(err, application.ErrInvalidToken) {
		h.fail(c, "User API error", MsgRequestFailed, err)
		return
	}
	if h.Logger != nil {
		h.Logger.WithFields(logrus.Fields{
			"request_id":  c.GetString(middleware.RequestIDKey),
			"token_print": helpers.TokenFingerprint(token),
			"error":       err.Error(),
		}).Debug("token rejected")
	}
	h.record(c, "", "", ActionTokenRejected, nil)
	response.Error(c, http.StatusUnauthorized, msgInvalidToken)
}

func (h *UserHandler) get(c *gin.Context, ident *entity.Identity) {
	u, err := h.Service.GetProfile(c.Request.Context(), ident.ID)
	if err != nil {
		if errors.Is(err, application.ErrUserNotFound) {
			response.Error(c, http.StatusBadRequest, msgUserNotFound)
			return
		}
		h.fail(c, "User API error", MsgRequestFailed, err)
		return
	}
	h.record(c, u.ID, u.GetEmail(), ActionProfileRead, nil)
	response.Success(c, http.StatusOK, presentUser(u))
}

func (h *UserHandler) patch(c *gin.Context, ident *entity.Identity) {
	raw, err := c.GetRawData()
	if err != nil {
		h.fail(c, "User API error", MsgRequestFailed, err)
		return
	}
	fields, err := decodeFields(raw)
	if err != nil {
		response.Error(c, http.StatusBadRequest, msgInvalidPayload)
		return
	}

	u, err := h.Service.UpdateProfile(c.Request.Context(), ident.ID, fields)
	if err != nil {
		var nw *application.NotWritableError
		switch {
		case errors.As(err, &nw):
			response.Error(c, http.StatusBadRequest, "Field not writable: "+nw.Field)
		case errors.Is(err, application.ErrProfileWrite):
			response.Error(c, http.StatusBadRequest, repo.MessageOf(err))
		default:
			h.fail(c, "User API error", MsgRequestFailed, err)
		}
		return
	}
	h.record(c, u.ID, u.GetEmail(), ActionProfileUpdated, map[string]any{"fields": fieldNames(fields)})
	response.Success(c, http.StatusOK, presentUser(u))
}

// decodeFields reads a single JSON object. Numbers stay json.Number so they
// reach the store with the digits the caller sent.
func decodeFields(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, errors.New("update payload is not an object")
	}
	if err := dec.Decode(new(json.RawMessage)); err != io.EOF {
		return nil, errors.New("trailing data after update payload")
	}
	return fields, nil
}

func fieldNames(fields map[string]any) []string {
	out := make([]string, 0, len(fields))
	for k := range fields {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
