package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/access"
	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/auth"
	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/model"
	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/repository"
	"github.com/google/uuid"
)

// UserService handles accounts, sessions and the admin dashboard.
type UserService struct {
	store   repository.Store
	tokens  *auth.Tokens
	revoker auth.Revoker
	logger  *slog.Logger
	now     func() time.Time
}

// NewUserService constructs a UserService. revoker may be nil, in which case
// logout does not invalidate tokens server-side.
func NewUserService(store repository.Store, tokens *auth.Tokens, revoker auth.Revoker, logger *slog.Logger) *UserService {
	if revoker == nil {
		revoker = auth.NopRevoker{}
	}
	return &UserService{store: store, tokens: tokens, revoker: revoker, logger: logger, now: time.Now}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account and signs the caller in.
func (s *UserService) Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if req.Role == "" {
		req.Role = model.RoleUser
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	user := &model.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		Phone:        strings.TrimSpace(req.Phone),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	token, _, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered", "id", user.ID, "role", user.Role)
	return &model.AuthResponse{Message: "registration successful", Token: token, User: user}, nil
}

// Login exchanges credentials for a token.
func (s *UserService) Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	token, _, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &model.AuthResponse{Message: "login successful", Token: token, User: user}, nil
}

// Logout revokes the token described by claims until it expires.
func (s *UserService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil {
		return access.ErrUnauthenticated
	}
	var until time.Time
	if claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}
	return s.revoker.Revoke(ctx, claims.ID, until)
}

// Authenticate resolves a bearer token to the current state of its user.
// The role is read from the store, not the token, so role changes and
// deactivation take effect immediately.
func (s *UserService) Authenticate(ctx context.Context, token string) (*access.Principal, *auth.Claims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, nil, err
	}
	revoked, err := s.revoker.Revoked(ctx, claims.ID)
	if err != nil {
		return nil, nil, err
	}
	if revoked {
		return nil, nil, fmt.Errorf("%w: revoked", auth.ErrInvalidToken)
	}

	user, err := s.store.GetUser(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: unknown subject", auth.ErrInvalidToken)
		}
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, ErrAccountDisabled
	}
	return &access.Principal{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Phone: user.Phone,
		Role:  user.Role,
	}, claims, nil
}

// Profile returns the caller's account.
func (s *UserService) Profile(ctx context.Context, p *access.Principal) (*model.User, error) {
	if p == nil {
		return nil, access.ErrUnauthenticated
	}
	u, err := s.store.GetUser(ctx, p.ID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return u, nil
}

// UpdateProfile edits the caller's name and phone.
func (s *UserService) UpdateProfile(ctx context.Context, p *access.Principal, req model.UpdateProfileRequest) (*model.User, error) {
	if p == nil {
		return nil, access.ErrUnauthenticated
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		req.Name = &name
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	u, err := s.store.GetUser(ctx, p.ID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Phone != nil {
		u.Phone = strings.TrimSpace(*req.Phone)
	}
	u.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateProfile(ctx, u); err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return u, nil
}

// List returns every account. Admin only.
func (s *UserService) List(ctx context.Context, p *access.Principal) ([]model.User, error) {
	if err := access.Require(p, "list users", access.Admin); err != nil {
		return nil, err
	}
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

// Delete removes an account. Admin only; admins cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, p *access.Principal, id string) error {
	if err := access.Require(p, "delete user", access.Admin); err != nil {
		return err
	}
	if !validID(id) {
		return ErrUserNotFound
	}
	if id == p.ID {
		return &ValidationError{Message: "you cannot delete your own account"}
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return notFound(err, ErrUserNotFound)
	}
	s.logger.Info("user deleted", "id", id, "by", p.ID)
	return nil
}

// Stats returns dashboard totals. Admin only.
func (s *UserService) Stats(ctx context.Context, p *access.Principal) (model.Totals, error) {
	if err := access.Require(p, "view dashboard", access.Admin); err != nil {
		return model.Totals{}, err
	}
	return s.store.Totals(ctx)
}

// EnsureAdmin creates an active admin account with the given credentials
// unless the email is already registered. It reports whether one was made.
func (s *UserService) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	email = normalizeEmail(email)
	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return false, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, err
	}
	now := s.now().UTC()
	err = s.store.CreateUser(ctx, &model.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if errors.Is(err, repository.ErrConflict) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}
	s.logger.Info("admin account created", "email", email)
	return true, nil
}
