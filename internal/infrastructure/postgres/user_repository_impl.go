package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/supabase-auth-api/internal/domain/entity"
	"github.com/oksasatya/supabase-auth-api/internal/domain/repository"
)

const profileColumns = "id, username, email, balance, role, permissions, created_at"

// UserRepository is the users table reached directly over pgx.
type UserRepository struct {
	pool  *pgxpool.Pool
	table string
}

func NewUserRepository(pool *pgxpool.Pool, table string) *UserRepository {
	if table == "" {
		table = "users"
	}
	return &UserRepository{pool: pool, table: pgx.Identifier{table}.Sanitize()}
}

func scanProfile(row pgx.Row) (*entity.UserProfile, error) {
	u := &entity.UserProfile{}
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Balance, &u.Role, &u.Permissions, &u.CreatedAt); err != nil {
		return nil, translate(err)
	}
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, p *entity.UserProfile) (*entity.UserProfile, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO `+r.table+` (id, username, email, balance, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+profileColumns,
		p.ID, p.Username, p.Email, p.Balance, p.Role, p.CreatedAt)
	return scanProfile(row)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.UserProfile, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM `+r.table+` WHERE id = $1`, id)
	return scanProfile(row)
}

// Update writes fields as given. An empty map reads the row back unchanged.
func (r *UserRepository) Update(ctx context.Context, id string, fields map[string]any) (*entity.UserProfile, error) {
	if len(fields) == 0 {
		return r.GetByID(ctx, id)
	}
	sql, args, err := buildUpdate(r.table, id, fields)
	if err != nil {
		return nil, err
	}
	return scanProfile(r.pool.QueryRow(ctx, sql, args...))
}

// buildUpdate renders UPDATE ... RETURNING for fields in key order. Column
// names are quoted identifiers and values are always bind parameters.
func buildUpdate(table, id string, fields map[string]any) (string, []any, error) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sets := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys)+1)
	for i, k := range keys {
		v, err := columnValue(fields[k])
		if err != nil {
			return "", nil, fmt.Errorf("field %q: %w", k, err)
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", pgx.Identifier{k}.Sanitize(), i+1))
		args = append(args, v)
	}
	args = append(args, id)

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d RETURNING %s",
		table, strings.Join(sets, ", "), len(args), profileColumns)
	return sql, args, nil
}

// columnValue renders decoded JSON as text parameters so the server does the
// parsing and a value the column cannot hold comes back as a PgError. String
// arrays become array literals and other composites are stored as JSON text.
func columnValue(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(t), nil
	case []any:
		elems := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return jsonText(t)
			}
			elems = append(elems, arrayElem(s))
		}
		return "{" + strings.Join(elems, ",") + "}", nil
	default:
		return jsonText(t)
	}
}

var arrayEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func arrayElem(s string) string { return `"` + arrayEscaper.Replace(s) + `"` }

func jsonText(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
