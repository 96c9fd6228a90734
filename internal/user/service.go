package user

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/mo"

	"github.com/Apples890/Craftmandu-Updated-sub000/internal/apperr"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/auth"
)

type Service struct {
	repo   Repository
	tokens *auth.Issuer
}

func NewService(repo Repository, tokens *auth.Issuer) *Service {
	return &Service{repo: repo, tokens: tokens}
}

func normalizeEmail(e string) string { return strings.ToLower(strings.TrimSpace(e)) }

func (s *Service) issue(u *User) (*AuthResponse, error) {
	toks, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &AuthResponse{User: u, Tokens: toks}, nil
}

// Register creates a CUSTOMER account with every capability enabled.
func (s *Service) Register(ctx context.Context, in RegisterRequest) (*AuthResponse, error) {
	email := normalizeEmail(in.Email)
	name := strings.TrimSpace(in.FullName)
	if email == "" || name == "" || len(in.Password) < 8 {
		return nil, apperr.BadRequest("email, full name and a password of at least 8 characters are required")
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	u := &User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		FullName:     name,
		Role:         auth.RoleCustomer,
		CanChat:      true,
		CanOrder:     true,
		CanReview:    true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrAlreadyExist) {
			return nil, apperr.BadRequest("Email already in use")
		}
		return nil, apperr.Internal(err)
	}
	return s.issue(u)
}

func (s *Service) Login(ctx context.Context, in LoginRequest) (*AuthResponse, error) {
	u, err := s.repo.GetByEmail(ctx, normalizeEmail(in.Email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.Unauthorized("Invalid credentials")
		}
		return nil, apperr.Internal(err)
	}
	if u.PasswordHash == "" || !auth.CheckPassword(u.PasswordHash, in.Password) {
		return nil, apperr.Unauthorized("Invalid credentials")
	}
	if u.IsBanned {
		return nil, apperr.Forbidden("Account is banned")
	}
	return s.issue(u)
}

// Refresh exchanges a refresh token for a new pair, re-reading the role so
// that promotions and bans take effect.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := s.tokens.Parse(refreshToken, auth.TokenRefresh)
	if err != nil {
		return nil, apperr.Unauthorized("invalid or expired token")
	}
	u, err := s.Get(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if u.IsBanned {
		return nil, apperr.Forbidden("Account is banned")
	}
	return s.issue(u)
}

func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal(err)
	}
	return u, nil
}

func (s *Service) UpdateProfile(ctx context.Context, id string, in UpdateProfileRequest) (*User, error) {
	p := Patch{
		FullName:  mo.PointerToOption(in.FullName),
		Phone:     mo.PointerToOption(in.Phone),
		AvatarURL: mo.PointerToOption(in.AvatarURL),
	}
	if name, ok := p.FullName.Get(); ok && strings.TrimSpace(name) == "" {
		return nil, apperr.BadRequest("full name cannot be empty")
	}
	if in.Password != nil {
		if len(*in.Password) < 8 {
			return nil, apperr.BadRequest("password must be at least 8 characters")
		}
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		p.PasswordHash = mo.Some(hash)
	}
	if err := s.repo.Update(ctx, id, p); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal(err)
	}
	return s.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, q Query) ([]User, int, error) {
	if q.Role != "" && !q.Role.Valid() {
		return nil, 0, apperr.BadRequest("invalid role %q", q.Role)
	}
	out, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return out, total, nil
}

func (s *Service) mutate(ctx context.Context, id string, fn func() error) (*User, error) {
	if err := fn(); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal(err)
	}
	return s.Get(ctx, id)
}

// SetBanned is admin moderation; admins cannot be banned.
func (s *Service) SetBanned(ctx context.Context, id string, banned bool) (*User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if banned && u.Role == auth.RoleAdmin {
		return nil, apperr.BadRequest("admins cannot be banned")
	}
	return s.mutate(ctx, id, func() error { return s.repo.SetBanned(ctx, id, banned) })
}

func (s *Service) SetCapabilities(ctx context.Context, id string, c Capabilities) (*User, error) {
	return s.mutate(ctx, id, func() error { return s.repo.SetCapabilities(ctx, id, c) })
}

func (s *Service) SetRole(ctx context.Context, id string, role auth.Role) (*User, error) {
	if !role.Valid() {
		return nil, apperr.BadRequest("invalid role %q", role)
	}
	return s.mutate(ctx, id, func() error { return s.repo.SetRole(ctx, id, role) })
}

func (s *Service) IDsByRole(ctx context.Context, role auth.Role) ([]string, error) {
	ids, err := s.repo.ListIDsByRole(ctx, role)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return ids, nil
}

// EnsureAdmin creates an ADMIN account for email, or promotes the existing
// one. It is used to bootstrap a fresh deployment.
func (s *Service) EnsureAdmin(ctx context.Context, email, password, fullName string) (*User, error) {
	email = normalizeEmail(email)
	u, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if u.Role == auth.RoleAdmin {
			return u, nil
		}
		return s.SetRole(ctx, u.ID, auth.RoleAdmin)
	case !errors.Is(err, ErrNotFound):
		return nil, apperr.Internal(err)
	}
	if fullName == "" {
		fullName = "Administrator"
	}
	res, err := s.Register(ctx, RegisterRequest{Email: email, Password: password, FullName: fullName})
	if err != nil {
		return nil, err
	}
	return s.SetRole(ctx, res.User.ID, auth.RoleAdmin)
}
