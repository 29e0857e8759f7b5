package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"travelshop/internal/domain"
)

// errBadCredentials is returned for both unknown emails and wrong passwords.
var errBadCredentials = fmt.Errorf("invalid email or password: %w", domain.ErrUnauthorized)

type AuthService struct {
	users  domain.UserRepository
	tokens domain.TokenService
	hasher domain.PasswordHasher
}

func NewAuthService(u domain.UserRepository, t domain.TokenService, h domain.PasswordHasher) *AuthService {
	return &AuthService{users: u, tokens: t, hasher: h}
}

type SignupRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Name     string `json:"name" validate:"required,max=100"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

func (s *AuthService) Signup(ctx context.Context, in SignupRequest) (domain.User, error) {
	return s.register(ctx, in, domain.RoleUser)
}

// EnsureAdmin creates the admin account unless the email is already registered.
func (s *AuthService) EnsureAdmin(ctx context.Context, in SignupRequest) (created bool, err error) {
	_, err = s.users.GetUserByEmail(ctx, normalizeEmail(in.Email))
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return false, err
	}
	if _, err := s.register(ctx, in, domain.RoleAdmin); err != nil {
		return false, err
	}
	return true, nil
}

func (s *AuthService) register(ctx context.Context, in SignupRequest, role domain.Role) (domain.User, error) {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := checkStruct(in); err != nil {
		return domain.User{}, err
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	u := domain.User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return domain.User{}, err
	}
	log.Info().Str("user_id", u.ID).Str("role", string(role)).Msg("user registered")
	return u, nil
}

// Login checks the credentials and issues an access token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, domain.User, error) {
	u, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		return "", domain.User{}, errBadCredentials
	}
	if err != nil {
		return "", domain.User{}, err
	}
	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		return "", domain.User{}, errBadCredentials
	}
	tok, err := s.tokens.Issue(domain.Principal{UserID: u.ID, Role: u.Role, TokenVersion: u.TokenVersion})
	if err != nil {
		return "", domain.User{}, fmt.Errorf("issue token: %w", err)
	}
	return tok, u, nil
}

// Authenticate verifies a token and rejects it once the user has logged out.
func (s *AuthService) Authenticate(ctx context.Context, token string) (domain.Principal, error) {
	p, err := s.tokens.Parse(token)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	u, err := s.users.GetUserByID(ctx, p.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Principal{}, fmt.Errorf("unknown user: %w", domain.ErrUnauthorized)
	}
	if err != nil {
		return domain.Principal{}, err
	}
	if u.TokenVersion != p.TokenVersion {
		return domain.Principal{}, fmt.Errorf("token revoked: %w", domain.ErrUnauthorized)
	}
	p.Role = u.Role
	return p, nil
}

// Logout revokes every token issued to the user.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.users.BumpTokenVersion(ctx, userID)
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
