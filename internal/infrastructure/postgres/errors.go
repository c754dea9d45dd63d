package postgres

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oksasatya/supabase-auth-api/internal/domain/repository"
)

const uniqueViolation = "23505"

// translate turns what the database reported into a collaborator error.
// Connection level failures and resource classes stay plain errors.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return &repository.Error{
			Kind:    repository.KindNotFound,
			Status:  http.StatusNotFound,
			Message: "no rows returned",
		}
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch {
	case pgErr.Code == uniqueViolation:
		return &repository.Error{
			Kind:    repository.KindConflict,
			Status:  http.StatusConflict,
			Code:    pgErr.Code,
			Message: pgErr.Message,
		}
	case transient(pgErr.Code):
		return err
	default:
		return &repository.Error{
			Kind:    repository.KindRejected,
			Status:  http.StatusBadRequest,
			Code:    pgErr.Code,
			Message: pgErr.Message,
		}
	}
}

// transient covers connection exceptions, insufficient resources, operator
// intervention, system and internal errors.
func transient(code string) bool {
	for _, class := range []string{"08", "53", "57", "58", "XX"} {
		if strings.HasPrefix(code, class) {
			return true
		}
	}
	return false
}
