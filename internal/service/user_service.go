package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"expert-qa/internal/domain"
	"expert-qa/internal/repository"
)

// UserService describes user lifecycle operations.
type UserService interface {
	Register(ctx context.Context, name, password string) (*domain.User, error)
	Authenticate(ctx context.Context, name, password string) (*domain.User, error)
	GetByName(ctx context.Context, name string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	ListExperts(ctx context.Context) ([]domain.User, error)
	Promote(ctx context.Context, actor *domain.User, id int64) error
	SetAdmin(ctx context.Context, name string, admin bool) (*domain.User, error)
}

type userService struct {
	users repository.UserRepository
	cost  int
}

func NewUserService(users repository.UserRepository) UserService {
	return &userService{
		users: users,
		cost:  bcrypt.DefaultCost,
	}
}

func (s *userService) Register(ctx context.Context, name, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if strings.TrimSpace(password) == "" {
		return nil, ErrPasswordRequired
	}

	if _, err := s.users.GetByName(ctx, name); err == nil {
		return nil, ErrUserAlreadyExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, ErrPasswordTooLong
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}

	return sanitizeUser(user), nil
}

func (s *userService) Authenticate(ctx context.Context, name, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	if name == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return sanitizeUser(user), nil
}

func (s *userService) GetByName(ctx context.Context, name string) (*domain.User, error) {
	user, err := s.users.GetByName(ctx, name)
	if err != nil {
		return nil, mapUserErr(err)
	}
	return sanitizeUser(user), nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, mapUserErr(err)
	}
	return sanitizeUser(user), nil
}

func (s *userService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	return sanitizeUsers(users), nil
}

func (s *userService) ListExperts(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.ListExperts(ctx)
	if err != nil {
		return nil, err
	}
	return sanitizeUsers(users), nil
}

// Promote grants the expert flag. Only admins may promote, and promoting
// an existing expert is a no-op.
func (s *userService) Promote(ctx context.Context, actor *domain.User, id int64) error {
	if actor == nil || !actor.Admin {
		return ErrForbidden
	}
	if err := s.users.SetExpert(ctx, id, true); err != nil {
		return mapUserErr(err)
	}
	return nil
}

func (s *userService) SetAdmin(ctx context.Context, name string, admin bool) (*domain.User, error) {
	user, err := s.users.GetByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, mapUserErr(err)
	}
	if err := s.users.SetAdmin(ctx, user.ID, admin); err != nil {
		return nil, mapUserErr(err)
	}
	user.Admin = admin
	return sanitizeUser(user), nil
}

func mapUserErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Name:      user.Name,
		Expert:    user.Expert,
		Admin:     user.Admin,
		CreatedAt: user.CreatedAt,
	}
}

func sanitizeUsers(users []domain.User) []domain.User {
	out := make([]domain.User, len(users))
	for i := range users {
		out[i] = *sanitizeUser(&users[i])
	}
	return out
}
