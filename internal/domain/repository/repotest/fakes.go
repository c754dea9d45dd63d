// Package repotest provides in-memory collaborators that count the calls
// they receive.
package repotest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/oksasatya/supabase-auth-api/internal/domain/entity"
	"github.com/oksasatya/supabase-auth-api/internal/domain/repository"
)

// Identity is a fake identity provider. Accounts maps email to password,
// Tokens maps bearer token to identity id.
type Identity struct {
	mu       sync.Mutex
	Accounts map[string]string
	IDs      map[string]string
	Tokens   map[string]string
	Session  json.RawMessage
	// SignUpErr and Err force failures of SignUp and of every call.
	SignUpErr error
	Err       error
	// NoSessionOnSignUp mimics projects requiring email confirmation.
	NoSessionOnSignUp bool

	Calls int
}

func NewIdentity() *Identity {
	return &Identity{
		Accounts: map[string]string{},
		IDs:      map[string]string{},
		Tokens:   map[string]string{},
		Session:  json.RawMessage(`{"access_token":"at","refresh_token":"rt","token_type":"bearer"}`),
	}
}

// AddAccount registers an identity usable with SignInWithPassword and the
// returned token.
func (f *Identity) AddAccount(id, email, password, token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Accounts[email] = password
	f.IDs[email] = id
	if token != "" {
		f.Tokens[token] = id
	}
}

func (f *Identity) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls
}

func (f *Identity) SignInWithPassword(_ context.Context, creds entity.Credentials) (*entity.AuthResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	pw, ok := f.Accounts[creds.Email]
	if !ok || pw != creds.Password {
		return nil, &repository.Error{
			Kind:    repository.KindInvalidCredentials,
			Status:  http.StatusBadRequest,
			Code:    "invalid_grant",
			Message: "Invalid login credentials",
		}
	}
	return &entity.AuthResult{
		Identity: entity.Identity{ID: f.IDs[creds.Email], Email: creds.Email},
		Session:  f.Session,
	}, nil
}

func (f *Identity) SignUp(_ context.Context, creds entity.Credentials, metadata map[string]any) (*entity.AuthResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	if f.SignUpErr != nil {
		return nil, f.SignUpErr
	}
	if _, exists := f.Accounts[creds.Email]; exists {
		return nil, &repository.Error{
			Kind:    repository.KindRejected,
			Status:  http.StatusUnprocessableEntity,
			Code:    "user_already_exists",
			Message: "User already registered",
		}
	}
	id := "id-" + creds.Email
	f.Accounts[creds.Email] = creds.Password
	f.IDs[creds.Email] = id
	res := &entity.AuthResult{Identity: entity.Identity{ID: id, Email: creds.Email, Metadata: metadata}}
	if !f.NoSessionOnSignUp {
		res.Session = f.Session
	}
	return res, nil
}

func (f *Identity) GetUser(_ context.Context, token string) (*entity.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	id, ok := f.Tokens[token]
	if !ok {
		return nil, &repository.Error{Kind: repository.KindUnauthorized, Status: http.StatusUnauthorized, Message: "invalid JWT"}
	}
	return &entity.Identity{ID: id}, nil
}

// Users is a fake users table.
type Users struct {
	mu   sync.Mutex
	Rows map[string]*entity.UserProfile
	// CreateErr, UpdateErr and Err force failures.
	CreateErr error
	UpdateErr error
	Err       error

	Calls int
	// LastFields is the map the latest Update received.
	LastFields map[string]any
}

func NewUsers() *Users {
	return &Users{Rows: map[string]*entity.UserProfile{}}
}

// Profile builds a stored row with the default role.
func Profile(id, username, email string, balance float64) *entity.UserProfile {
	role := entity.DefaultRole
	return &entity.UserProfile{
		ID:       id,
		Username: &username,
		Email:    &email,
		Balance:  &balance,
		Role:     &role,
	}
}

func (f *Users) Put(p *entity.UserProfile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.Rows[p.ID] = &cp
}

func (f *Users) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls
}

func notFound() error {
	return &repository.Error{
		Kind:    repository.KindNotFound,
		Status:  http.StatusNotAcceptable,
		Code:    "PGRST116",
		Message: "JSON object requested, multiple (or no) rows returned",
	}
}

func (f *Users) Create(_ context.Context, p *entity.UserProfile) (*entity.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	cp := *p
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	f.Rows[p.ID] = &cp
	out := cp
	return &out, nil
}

func (f *Users) GetByID(_ context.Context, id string) (*entity.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	p, ok := f.Rows[id]
	if !ok {
		return nil, notFound()
	}
	out := *p
	return &out, nil
}

// Update applies the known profile columns and rejects unknown ones the way
// the store reports an unknown column.
func (f *Users) Update(_ context.Context, id string, fields map[string]any) (*entity.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	f.LastFields = fields
	if f.UpdateErr != nil {
		return nil, f.UpdateErr
	}
	p, ok := f.Rows[id]
	if !ok {
		return nil, notFound()
	}
	next := *p
	for k, v := range fields {
		if err := apply(&next, k, v); err != nil {
			return nil, err
		}
	}
	f.Rows[id] = &next
	out := next
	return &out, nil
}

func apply(p *entity.UserProfile, key string, v any) error {
	bad := &repository.Error{
		Kind:    repository.KindRejected,
		Status:  http.StatusBadRequest,
		Code:    "PGRST204",
		Message: "Could not find the '" + key + "' column of 'users' in the schema cache",
	}
	switch key {
	case "username", "email", "role":
		s, ok := v.(string)
		if !ok {
			return bad
		}
		switch key {
		case "username":
			p.Username = &s
		case "email":
			p.Email = &s
		default:
			p.Role = &s
		}
	case "balance":
		n, err := number(v)
		if err != nil {
			return bad
		}
		p.Balance = &n
	case "permissions":
		list, ok := v.([]any)
		if !ok {
			return bad
		}
		perms := make([]string, 0, len(list))
		for _, e := range list {
			s, ok := e.(string)
			if !ok {
				return bad
			}
			perms = append(perms, s)
		}
		p.Permissions = perms
	default:
		return bad
	}
	return nil
}

func number(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case json.Number:
		return n.Float64()
	}
	return 0, errors.New("not a number")
}

// Orphans is a fake orphan ledger.
type Orphans struct {
	mu      sync.Mutex
	Entries []entity.OrphanedIdentity
}

func (f *Orphans) Add(_ context.Context, o entity.OrphanedIdentity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Entries = append(f.Entries, o)
	return nil
}

func (f *Orphans) List(context.Context) ([]entity.OrphanedIdentity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entity.OrphanedIdentity(nil), f.Entries...), nil
}

func (f *Orphans) Remove(_ context.Context, identityID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, o := range f.Entries {
		if o.IdentityID == identityID {
			f.Entries = append(f.Entries[:i], f.Entries[i+1:]...)
			return nil
		}
	}
	return &repository.Error{Kind: repository.KindNotFound, Message: "no orphan recorded for " + identityID}
}

// Audit collects audit entries.
type Audit struct {
	mu      sync.Mutex
	Entries []repository.AuditEntry
}

func (f *Audit) Insert(_ context.Context, e repository.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Entries = append(f.Entries, e)
	return nil
}

// Actions lists recorded actions in order.
func (f *Audit) Actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.Entries))
	for _, e := range f.Entries {
		out = append(out, e.Action)
	}
	return out
}

var (
	_ repository.IdentityProvider = (*Identity)(nil)
	_ repository.UserRepository   = (*Users)(nil)
	_ repository.OrphanRepository = (*Orphans)(nil)
	_ repository.AuditRepository  = (*Audit)(nil)
)
