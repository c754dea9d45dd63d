package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/supabase-auth-api/internal/domain/entity"
	repo "github.com/oksasatya/supabase-auth-api/internal/domain/repository"
	"github.com/oksasatya/supabase-auth-api/pkg/helpers"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrProfileNotFound    = errors.New("user profile not found")
	ErrIdentityRejected   = errors.New("identity rejected")
	ErrProfileWrite       = errors.New("profile write failed")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUserNotFound       = errors.New("user not found")
	ErrFieldNotWritable   = errors.New("field not writable")
)

// NotWritableError names the first field outside the writable allow-list.
type NotWritableError struct {
	Field string
}

func (e *NotWritableError) Error() string { return "field not writable: " + e.Field }

func (e *NotWritableError) Is(target error) bool { return target == ErrFieldNotWritable }

type Service struct {
	Identity repo.IdentityProvider
	Users    repo.UserRepository
	Orphans  repo.OrphanRepository   // optional
	Tokens   *helpers.TokenInspector // optional
	Logger   *logrus.Logger

	writable map[string]struct{}
	now      func() time.Time
}

// NewService wires the collaborators. writable restricts which profile
// fields UpdateProfile accepts; nil accepts any field.
func NewService(identity repo.IdentityProvider, users repo.UserRepository, orphans repo.OrphanRepository, tokens *helpers.TokenInspector, writable []string, logger *logrus.Logger) *Service {
	s := &Service{
		Identity: identity,
		Users:    users,
		Orphans:  orphans,
		Tokens:   tokens,
		Logger:   logger,
		now:      time.Now,
	}
	if writable != nil {
		s.writable = make(map[string]struct{}, len(writable))
		for _, f := range writable {
			s.writable[f] = struct{}{}
		}
	}
	return s
}

type LoginResult struct {
	Profile *entity.UserProfile
	Session []byte
}

type SignupResult struct {
	Identity entity.Identity
	Profile  *entity.UserProfile
	Session  []byte
}

// Login verifies credentials with the identity provider and loads the
// caller's profile. The session is only returned together with a profile.
func (s *Service) Login(ctx context.Context, creds entity.Credentials) (*LoginResult, error) {
	auth, err := s.Identity.SignInWithPassword(ctx, creds)
	if err != nil {
		// Only a 4xx answer means the credentials were refused. A 5xx or a
		// transport failure is reported as a server error, not a 401.
		if e, ok := repo.AsError(err); ok && e.Kind != repo.KindUnavailable {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
		}
		return nil, fmt.Errorf("sign in: %w", err)
	}

	profile, err := s.Users.GetByID(ctx, auth.Identity.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProfileNotFound, err)
	}
	return &LoginResult{Profile: profile, Session: auth.Session}, nil
}

// Signup creates the identity, then its profile row. A failed insert leaves
// the identity in place; it is recorded in the orphan ledger when one is
// configured.
func (s *Service) Signup(ctx context.Context, username string, creds entity.Credentials) (*SignupResult, error) {
	auth, err := s.Identity.SignUp(ctx, creds, map[string]any{"username": username})
	if err != nil {
		if repo.IsCollaborator(err) {
			return nil, fmt.Errorf("%w: %w", ErrIdentityRejected, err)
		}
		return nil, fmt.Errorf("sign up: %w", err)
	}

	profile, err := s.Users.Create(ctx, entity.NewProfile(auth.Identity.ID, username, creds.Email, s.now()))
	if err != nil {
		s.recordOrphan(ctx, auth.Identity, username, err)
		if repo.IsCollaborator(err) {
			return nil, fmt.Errorf("%w: %w", ErrProfileWrite, err)
		}
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return &SignupResult{Identity: auth.Identity, Profile: profile, Session: auth.Session}, nil
}

func (s *Service) recordOrphan(ctx context.Context, ident entity.Identity, username string, cause error) {
	helpers.LogWarn(s.Logger, "profile insert failed after identity creation", cause, logrus.Fields{"identity_id": ident.ID})
	if s.Orphans == nil {
		return
	}
	o := entity.OrphanedIdentity{
		IdentityID: ident.ID,
		Email:      ident.Email,
		Username:   username,
		Reason:     cause.Error(),
		CreatedAt:  s.now().UTC(),
	}
	if err := s.Orphans.Add(context.WithoutCancel(ctx), o); err != nil {
		helpers.LogError(s.Logger, "record orphaned identity failed", err, logrus.Fields{"identity_id": ident.ID})
	}
}

// ResolveToken returns the identity a bearer token belongs to. Every failure
// is reported as ErrInvalidToken.
func (s *Service) ResolveToken(ctx context.Context, token string) (*entity.Identity, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	if s.Tokens != nil {
		if _, err := s.Tokens.Inspect(token); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
		}
	}
	ident, err := s.Identity.GetUser(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return ident, nil
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*entity.UserProfile, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUserNotFound, err)
	}
	return u, nil
}

// UpdateProfile writes fields to the caller's row and returns the refreshed
// row.
func (s *Service) UpdateProfile(ctx context.Context, userID string, fields map[string]any) (*entity.UserProfile, error) {
	if err := s.checkWritable(fields); err != nil {
		return nil, err
	}
	u, err := s.Users.Update(ctx, userID, fields)
	if err != nil {
		if repo.IsCollaborator(err) {
			return nil, fmt.Errorf("%w: %w", ErrProfileWrite, err)
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return u, nil
}

func (s *Service) checkWritable(fields map[string]any) error {
	if s.writable == nil {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, ok := s.writable[k]; !ok {
			return &NotWritableError{Field: k}
		}
	}
	return nil
}
