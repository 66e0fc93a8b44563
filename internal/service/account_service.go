package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vbonduro/perfumery/internal/auth"
	"github.com/vbonduro/perfumery/internal/domain"
	"github.com/vbonduro/perfumery/internal/store"
)

// userRepository is the subset of store.UserStore that AccountService requires.
type userRepository interface {
	Create(ctx context.Context, u *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	UpdateProfile(ctx context.Context, id, name, email string, yob int, gender string, updatedAt time.Time) error
	Block(ctx context.Context, id, reason, blockedBy string, at time.Time) error
	Unblock(ctx context.Context, id string, at time.Time) error
}

type AccountService struct {
	userStore userRepository
	logger    *slog.Logger
	now       func() time.Time
}

func NewAccountService(userStore userRepository, logger *slog.Logger) *AccountService {
	return &AccountService{
		userStore: userStore,
		logger:    logger,
		now:       time.Now,
	}
}

// Login checks the credentials and returns the matching user. Every failure
// is reported as ErrInvalidCredentials, including blocked accounts.
func (s *AccountService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, password) {
		s.logger.Info("login rejected", "reason", "bad credentials")
		return nil, ErrInvalidCredentials
	}
	if user.IsBlocked {
		s.logger.Info("login rejected", "reason", "blocked", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return user, nil
}

// Register creates a member account. The new user is not logged in.
func (s *AccountService) Register(ctx context.Context, in RegistrationInput) (*domain.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := validateRegistration(in, s.now()); err != nil {
		return nil, err
	}

	existing, err := s.userStore.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user, err := s.userStore.Create(ctx, &domain.User{
		ID:           newID("user"),
		Email:        in.Email,
		PasswordHash: hash,
		Name:         in.Name,
		YOB:          in.YearOfBirth,
		Gender:       in.Gender,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if errors.Is(err, store.ErrDuplicate) {
		// Lost a race with a concurrent registration.
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

// GetUser returns the user or ErrNotFound.
func (s *AccountService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// UpdateProfile saves the editable fields of user's own profile.
func (s *AccountService) UpdateProfile(ctx context.Context, user *domain.User, in ProfileInput) (*domain.User, error) {
	if user == nil {
		return nil, ErrForbidden
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := validateProfile(in, s.now()); err != nil {
		return nil, err
	}

	if !strings.EqualFold(in.Email, user.Email) {
		existing, err := s.userStore.GetByEmail(ctx, in.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to look up user: %w", err)
		}
		if existing != nil && existing.ID != user.ID {
			return nil, ErrEmailTaken
		}
	}

	err := s.userStore.UpdateProfile(ctx, user.ID, in.Name, in.Email, in.YearOfBirth, in.Gender, s.now())
	if errors.Is(err, store.ErrDuplicate) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, notFoundOr(err)
	}
	s.logger.Info("profile updated", "user_id", user.ID)
	return s.GetUser(ctx, user.ID)
}

// ListUsers returns every account for the admin dashboard.
func (s *AccountService) ListUsers(ctx context.Context, actor *domain.User) ([]*domain.User, error) {
	if actor == nil || !actor.IsAdmin {
		return nil, ErrForbidden
	}
	return s.userStore.List(ctx)
}

// ToggleBlock blocks the target if it is active and unblocks it otherwise.
// Only admins may call it and admins cannot be blocked.
func (s *AccountService) ToggleBlock(ctx context.Context, actor *domain.User, targetID string) (*domain.User, error) {
	if actor == nil || !actor.IsAdmin {
		return nil, ErrForbidden
	}

	target, err := s.GetUser(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target.IsAdmin {
		return nil, ErrCannotBlockAdmin
	}

	now := s.now()
	if target.IsBlocked {
		err = s.userStore.Unblock(ctx, target.ID, now)
	} else {
		err = s.userStore.Block(ctx, target.ID, blockedReason, actor.ID, now)
	}
	if err != nil {
		return nil, notFoundOr(err)
	}

	s.logger.Info("user block toggled", "user_id", target.ID, "blocked", !target.IsBlocked, "by", actor.ID)
	return s.GetUser(ctx, target.ID)
}
