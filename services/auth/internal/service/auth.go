package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/snapcart/pkg/events"
	pkg_hash "github.com/Skotchmaster/snapcart/pkg/hash"
	"github.com/Skotchmaster/snapcart/pkg/logging"
	authmw "github.com/Skotchmaster/snapcart/pkg/middleware/auth"
	"github.com/Skotchmaster/snapcart/pkg/tokens"
	"github.com/Skotchmaster/snapcart/services/auth/internal/models"
	"github.com/Skotchmaster/snapcart/services/auth/internal/repo"
	"github.com/Skotchmaster/snapcart/services/auth/internal/transport"
)

var (
	ErrValidation = errors.New("validation") // 400
	ErrNotFound   = errors.New("not found")  // 404
	ErrConflict   = errors.New("conflict")   // 409

	ErrInvalidCredentials = errors.New("invalid credentials") // 401

	ErrDuplicateEmail = fmt.Errorf("%w: user already exists", ErrConflict)
	ErrEmailTaken     = fmt.Errorf("%w: email already in use", ErrConflict)
)

type AuthService struct {
	Repo      *repo.GormRepo
	JWTSecret []byte
	TokenTTL  time.Duration
	Events    events.Publisher

	// AllowAdminSignup lets register honour a requested admin flag.
	AllowAdminSignup bool

	Now func() time.Time
}

type AuthResult struct {
	User  *models.User
	Token string
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *AuthService) issue(u *models.User) (*AuthResult, error) {
	tok, err := tokens.Issue(u.ID, s.JWTSecret, s.TokenTTL, s.now())
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{User: u, Token: tok}, nil
}

func (s *AuthService) Register(ctx context.Context, req transport.RegisterRequest) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	if name == "" || email == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: All fields required", ErrValidation)
	}

	exists, err := s.Repo.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateEmail
	}

	pwHash, err := pkg_hash.HashPassword(req.Password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: pwHash,
		IsAdmin:      req.IsAdmin && s.AllowAdminSignup,
	}
	if req.IsAdmin && !s.AllowAdminSignup {
		l.Warn("admin_signup_ignored", "email", email)
	}

	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	events.Publish(ctx, s.Events, events.TopicUser, user.ID.String(), map[string]any{
		"type":    "user_registered",
		"userID":  user.ID.String(),
		"email":   user.Email,
		"isAdmin": user.IsAdmin,
	})

	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password required", ErrValidation)
	}

	user, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("login_failed", "status", 401, "reason", "unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !pkg_hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "password mismatch")
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *AuthService) Profile(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.Repo.GetUserById(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: User not found", ErrNotFound)
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile applies the non-empty fields of req to the caller's account.
// The admin flag is only changed when the caller already is an admin.
func (s *AuthService) UpdateProfile(ctx context.Context, caller *authmw.Principal, req transport.UpdateProfileRequest) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.update_profile")

	user, err := s.Profile(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if email != "" && email != user.Email {
			exists, err := s.Repo.EmailExists(ctx, email)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, ErrEmailTaken
			}
			user.Email = email
		}
	}
	if req.Name != nil {
		if name := strings.TrimSpace(*req.Name); name != "" {
			user.Name = name
		}
	}
	if req.Password != nil && *req.Password != "" {
		pwHash, err := pkg_hash.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = pwHash
	}
	if req.IsAdmin != nil && *req.IsAdmin != user.IsAdmin {
		if caller.IsAdmin {
			user.IsAdmin = *req.IsAdmin
		} else {
			l.Warn("admin_flag_change_ignored", "user_id", user.ID.String())
		}
	}

	if err := s.Repo.SaveUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return s.issue(user)
}

func (s *AuthService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.Repo.ListUsers(ctx)
}

// SetAdmin grants or revokes the admin flag by email.
func (s *AuthService) SetAdmin(ctx context.Context, email string, admin bool) (*models.User, error) {
	user, err := s.Repo.SetAdmin(ctx, strings.TrimSpace(email), admin)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: no user with email %q", ErrNotFound, email)
		}
		return nil, err
	}
	return user, nil
}

// ResolveUser lets the gate load principals straight from the directory.
func (s *AuthService) ResolveUser(ctx context.Context, userID uuid.UUID, _ string) (*authmw.Principal, error) {
	user, err := s.Repo.GetUserById(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, authmw.ErrUnknownUser
		}
		return nil, err
	}
	return &authmw.Principal{
		ID:      user.ID,
		Name:    user.Name,
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
	}, nil
}
