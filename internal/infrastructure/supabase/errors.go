package supabase

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/oksasatya/supabase-auth-api/internal/domain/repository"
)

// authErrorBody covers both GoTrue error shapes:
// {"error":"invalid_grant","error_description":"..."} and
// {"code":400,"error_code":"...","msg":"..."}, plus gateway {"message":"..."}.
type authErrorBody struct {
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorCode        string `json:"error_code"`
}

func authError(r *reply) *repository.Error {
	var b authErrorBody
	_ = json.Unmarshal(r.body, &b)

	msg := firstNonEmpty(b.Msg, b.ErrorDescription, b.Message, b.Error, http.StatusText(r.status))
	code := firstNonEmpty(b.ErrorCode, b.Error)
	return &repository.Error{
		Kind:    repository.KindFromStatus(r.status),
		Status:  r.status,
		Code:    code,
		Message: msg,
	}
}

// restErrorBody is PostgREST's error shape.
type restErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

const (
	pgrstSingularity  = "PGRST116" // single object requested, 0 or >1 rows
	pgUniqueViolation = "23505"
)

func restError(r *reply) *repository.Error {
	var b restErrorBody
	_ = json.Unmarshal(r.body, &b)

	kind := repository.KindFromStatus(r.status)
	switch b.Code {
	case pgrstSingularity:
		kind = repository.KindNotFound
	case pgUniqueViolation:
		kind = repository.KindConflict
	}
	return &repository.Error{
		Kind:    kind,
		Status:  r.status,
		Code:    b.Code,
		Message: firstNonEmpty(b.Message, strings.TrimSpace(string(r.body)), http.StatusText(r.status)),
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
