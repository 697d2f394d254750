package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/iliyamo/expense-tracker/internal/logging"
	"github.com/iliyamo/expense-tracker/internal/model"
	"github.com/iliyamo/expense-tracker/internal/repository"
)

// Messages shared with the HTTP validator.
const (
	MsgNameRequired     = "Name is required"
	MsgNameTooLong      = "Name must be at most 255 characters"
	MsgEmailInvalid     = "Email is invalid"
	MsgEmailTooLong     = "Email must be at most 255 characters"
	MsgPasswordRequired = "Password is required"
	MsgEmailRegistered  = "Email is already registered"
)

// UserStore persists user accounts.  Lookups of unknown users report
// repository.ErrUserNotFound.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	UpdateProfile(ctx context.Context, u *model.User) error
	// Delete removes the user and its expenses atomically.
	Delete(ctx context.Context, id uint64) error
}

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// TokenIssuer signs identity tokens for authenticated users.
type TokenIssuer interface {
	Issue(u *model.User) (string, error)
}

// IdentityService registers users and exchanges credentials for tokens.
type IdentityService struct {
	users  UserStore
	hasher PasswordHasher
	tokens TokenIssuer
	log    logging.Logger
	lists  ListInvalidator

	dummyOnce sync.Once
	dummyHash string
}

// IdentityOption configures optional collaborators of an IdentityService.
type IdentityOption func(*IdentityService)

// WithListInvalidation drops an owner's cached expense lists whenever the
// owner is renamed or deleted.
func WithListInvalidation(c ListInvalidator) IdentityOption {
	return func(s *IdentityService) { s.lists = c }
}

// NewIdentityService returns a service storing users in users.  tokens may be
// nil for callers that never log in, such as the adduser command.
func NewIdentityService(users UserStore, hasher PasswordHasher, tokens TokenIssuer, log logging.Logger, opts ...IdentityOption) *IdentityService {
	s := &IdentityService{users: users, hasher: hasher, tokens: tokens, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a user with a hashed password and returns the stored
// record.  A duplicate email is reported as a ValidationError on "email".
func (s *IdentityService) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	name = strings.TrimSpace(name)
	email = repository.NormalizeEmail(email)

	verr := &ValidationError{}
	if name == "" {
		verr.Add("name", MsgNameRequired)
	}
	if email == "" {
		verr.Add("email", MsgEmailInvalid)
	}
	if strings.TrimSpace(password) == "" {
		verr.Add("password", MsgPasswordRequired)
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &model.User{Name: name, Email: email, PasswordHash: hash}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, fieldError("email", MsgEmailRegistered)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.log.Info(ctx, "user registered", "user_id", u.ID)
	return u, nil
}

// Login verifies the credentials and returns a signed token.  Unknown email
// and wrong password both yield ErrInvalidCredentials after one bcrypt
// comparison each.
func (s *IdentityService) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.users.GetByEmail(ctx, repository.NormalizeEmail(email))
	if errors.Is(err, repository.ErrUserNotFound) {
		s.hasher.Verify(password, s.dummy())
		s.log.Info(ctx, "login failed")
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("load user: %w", err)
	}
	if !s.hasher.Verify(password, u.PasswordHash) {
		s.log.Info(ctx, "login failed", "user_id", u.ID)
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	s.log.Info(ctx, "user logged in", "user_id", u.ID)
	return token, nil
}

// Profile returns the user with the given id.
func (s *IdentityService) Profile(ctx context.Context, id uint64) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

// UpdateProfile applies the non-blank fields of patch to user id.
func (s *IdentityService) UpdateProfile(ctx context.Context, id uint64, patch model.UserPatch) (*model.User, error) {
	u, err := s.Profile(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) != "" {
		u.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Email != nil && strings.TrimSpace(*patch.Email) != "" {
		u.Email = repository.NormalizeEmail(*patch.Email)
	}

	if err := s.users.UpdateProfile(ctx, u); err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return nil, fieldError("email", MsgEmailRegistered)
		case errors.Is(err, repository.ErrUserNotFound):
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	s.log.Info(ctx, "profile updated", "user_id", u.ID)
	// cached lists embed the owner's name
	s.dropLists(ctx, u.ID)
	return u, nil
}

// DeleteAccount removes user id together with all of its expenses.  A user
// that does not exist yields ErrNotFound.
func (s *IdentityService) DeleteAccount(ctx context.Context, id uint64) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}
	s.log.Info(ctx, "account deleted", "user_id", id)
	s.dropLists(ctx, id)
	return nil
}

func (s *IdentityService) dropLists(ctx context.Context, id uint64) {
	if s.lists == nil {
		return
	}
	if err := s.lists.Invalidate(ctx, id); err != nil {
		s.log.Warn(ctx, "expense cache invalidation failed", "user_id", id, "error", err)
	}
}

// dummy returns a hash used to equalise the cost of logins with an unknown
// email.
func (s *IdentityService) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("expense-tracker-dummy-password")
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}
