package users

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/austral-pos/austral-pos/internal/masterdata/shared"
)

const minPasswordLength = 8

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]User, int, error) {
	filters.Normalize()
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	if id <= 0 {
		return User{}, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, user User, password string) (User, error) {
	if strings.TrimSpace(user.Email) == "" {
		return User{}, fmt.Errorf("%w: email", shared.ErrRequiredField)
	}
	if strings.TrimSpace(user.Name) == "" {
		return User{}, fmt.Errorf("%w: name", shared.ErrRequiredField)
	}
	if len(password) < minPasswordLength {
		return User{}, fmt.Errorf("%w: password must be at least %d characters", shared.ErrValidation, minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hash)
	user.IsActive = true
	return s.repo.Create(ctx, user)
}

func (s *Service) Update(ctx context.Context, id int64, user User) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	if strings.TrimSpace(user.Email) == "" {
		return fmt.Errorf("%w: email", shared.ErrRequiredField)
	}
	if strings.TrimSpace(user.Name) == "" {
		return fmt.Errorf("%w: name", shared.ErrRequiredField)
	}
	return s.repo.Update(ctx, id, user)
}

func (s *Service) SetActive(ctx context.Context, id int64, active bool) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	return s.repo.SetActive(ctx, id, active)
}
