package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"labrisk-backend/internal/shared/auth"
	"labrisk-backend/internal/shared/telemetry"
)

var (
	// ErrInvalidCredentials covers unknown email and wrong password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidInput indicates a malformed registration value.
	ErrInvalidInput = errors.New("invalid input")
)

// Service handles registration, login, and admin seeding.
type Service struct {
	repo Repo
}

// NewService creates the user service.
func NewService(repo Repo) *Service {
	return &Service{repo: repo}
}

// Register creates a new identity. Self-registration always gets the user
// role; admins exist only through seeding.
func (s *Service) Register(ctx context.Context, fullName, email, password string) (*User, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.ToLower(strings.TrimSpace(email))

	if fullName == "" {
		return nil, fmt.Errorf("%w: full name is required", ErrInvalidInput)
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}

	return s.create(ctx, fullName, email, password, auth.RoleUser)
}

// Login verifies credentials and issues a signed token.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := auth.Sign(u.ID, u.Email, u.FullName, u.Role)
	if err != nil {
		return nil, "", fmt.Errorf("sign token: %w", err)
	}
	return u, token, nil
}

// GetByID returns the user or ErrNotFound.
func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// SeedAdmin creates the bootstrap admin once. A no-op when the email is
// unset or the admin already exists.
func (s *Service) SeedAdmin(ctx context.Context, email, password, name string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil
	}
	if password == "" {
		return fmt.Errorf("admin seed: password is required")
	}
	if name == "" {
		name = "Administrator"
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	if _, err := s.create(ctx, name, email, password, auth.RoleAdmin); err != nil {
		// a concurrent seeder may have won the race
		if errors.Is(err, ErrEmailTaken) {
			return nil
		}
		return err
	}
	telemetry.Info("users.admin_seeded", map[string]any{"email": email})
	return nil
}

func (s *Service) create(ctx context.Context, fullName, email, password, role string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	u := &User{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     fullName,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
