// Package identity manages storefront accounts: password sign-in, JWT
// issuance and the createadmin flow.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/storefrontbase/storefront/internal/storage"
	"github.com/storefrontbase/storefront/pkg/model"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrInvalidToken       = errors.New("invalid token")
	ErrNotAdmin           = errors.New("caller lacks the admin claim")
)

// ProfilesCollection holds one profile document per account, keyed by uid.
const ProfilesCollection = "users"

// ProfileStore is the part of the document store used for profiles.
type ProfileStore interface {
	Create(ctx context.Context, path string, data map[string]interface{}) error
	Delete(ctx context.Context, path string) error
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// AdminRequest is the createadmin payload.
type AdminRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	MobileNo string `json:"mobileNo"`
	Password string `json:"password"`
}

type AuthService struct {
	users    storage.UserStore
	profiles ProfileStore
	tokens   *TokenService
	cfg      Config
	logger   *slog.Logger
}

func NewAuthService(cfg Config, users storage.UserStore, profiles ProfileStore, tokens *TokenService) *AuthService {
	return &AuthService{
		users:    users,
		profiles: profiles,
		tokens:   tokens,
		cfg:      cfg,
		logger:   slog.Default().With("component", "identity"),
	}
}

func (s *AuthService) Tokens() *TokenService {
	return s.tokens
}

func (s *AuthService) SignIn(ctx context.Context, req LoginRequest) (*TokenPair, error) {
	user, err := s.users.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, storage.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	valid, err := VerifyPassword(req.Password, user.PasswordHash, user.PasswordAlgo)
	if err != nil {
		return nil, err
	}
	if !valid {
		return nil, ErrInvalidCredentials
	}
	if user.Disabled {
		return nil, ErrAccountDisabled
	}
	return s.tokens.GenerateTokenPair(user)
}

// Refresh issues a new pair from a refresh token. The account is reloaded
// so claim changes take effect.
func (s *AuthService) Refresh(ctx context.Context, req RefreshRequest) (*TokenPair, error) {
	claims, err := s.tokens.validate(req.RefreshToken, tokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetUserByID(ctx, claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if user.Disabled {
		return nil, ErrAccountDisabled
	}
	return s.tokens.GenerateTokenPair(user)
}

// CreateAdmin creates an admin account on behalf of caller. The caller must
// carry the admin claim.
func (s *AuthService) CreateAdmin(ctx context.Context, caller *Claims, req AdminRequest) error {
	if !caller.IsAdmin() {
		return ErrNotAdmin
	}
	return s.BootstrapAdmin(ctx, req)
}

// BootstrapAdmin runs the admin creation saga without checking a caller:
// create the auth account, write its profile, then grant the admin claim.
// A failure undoes what was created, newest first.
func (s *AuthService) BootstrapAdmin(ctx context.Context, req AdminRequest) error {
	if err := s.validateAdmin(req); err != nil {
		return err
	}

	hash, algo, err := HashPassword(req.Password)
	if err != nil {
		return err
	}
	user := &storage.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: hash,
		PasswordAlgo: algo,
	}

	err = runSaga(ctx, s.logger, []step{
		{
			name: "create auth user",
			do: func(ctx context.Context) error {
				return s.users.CreateUser(ctx, user)
			},
			undo: func(ctx context.Context) error {
				return ignoreMissing(s.users.DeleteUser(ctx, user.ID))
			},
		},
		{
			name: "create profile",
			do: func(ctx context.Context) error {
				return s.profiles.Create(ctx, profilePath(user.ID), map[string]interface{}{
					"name":     req.Name,
					"email":    user.Email,
					"mobileNo": req.MobileNo,
					"role":     "admin",
				})
			},
			undo: func(ctx context.Context) error {
				return ignoreMissing(s.profiles.Delete(ctx, profilePath(user.ID)))
			},
		},
		{
			name: "grant admin claim",
			do: func(ctx context.Context) error {
				return s.users.SetCustomClaims(ctx, user.ID, map[string]interface{}{"admin": true})
			},
		},
	})
	if err != nil {
		return err
	}

	s.logger.Info("Admin user created", "uid", user.ID)
	return nil
}

func (s *AuthService) validateAdmin(req AdminRequest) error {
	if strings.TrimSpace(req.Email) == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return fmt.Errorf("invalid email address %q", req.Email)
	}
	if len(req.Password) < s.cfg.MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", s.cfg.MinPasswordLength)
	}
	return nil
}

func profilePath(uid string) string {
	return storage.JoinPath(ProfilesCollection, uid)
}

// ignoreMissing treats an already-absent resource as undone.
func ignoreMissing(err error) error {
	if errors.Is(err, model.ErrNotFound) || errors.Is(err, storage.ErrUserNotFound) {
		return nil
	}
	return err
}
