package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"coffee_shop/internal/models"
	"coffee_shop/internal/repository"
)

type UserService interface {
	RegisterUser(ctx context.Context, externalID int64, name, handle string) error
	ResolveInternalID(ctx context.Context, externalID int64) (uint, error)
	ResolveOrCreate(ctx context.Context, externalID int64) (id uint, created bool, err error)
	GetUser(ctx context.Context, externalID int64) (*models.User, error)
}

type userService struct {
	userRepo repository.UserRepository
	log      *slog.Logger
}

func NewUserService(userRepo repository.UserRepository, log *slog.Logger) UserService {
	return &userService{userRepo: userRepo, log: log.With("component", "user_service")}
}

// RegisterUser creates the user on first contact. Calling it again for the
// same external id is a no-op and keeps the stored name and handle.
func (s *userService) RegisterUser(ctx context.Context, externalID int64, name, handle string) error {
	user := &models.User{
		ExternalID: externalID,
		Name:       name,
		Handle:     handle,
	}
	if err := s.userRepo.Register(ctx, user); err != nil {
		return fmt.Errorf("failed to register user %d: %w", externalID, err)
	}
	return nil
}

func (s *userService) ResolveInternalID(ctx context.Context, externalID int64) (uint, error) {
	return s.userRepo.GetInternalID(ctx, externalID)
}

// ResolveOrCreate returns the internal id for externalID, registering the
// user under PlaceholderUserName when they have never been seen. created
// reports whether that happened.
func (s *userService) ResolveOrCreate(ctx context.Context, externalID int64) (uint, bool, error) {
	id, err := s.userRepo.GetInternalID(ctx, externalID)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return 0, false, err
	}

	s.log.Warn("registering unknown user with placeholder name", "external_id", externalID)
	if err := s.RegisterUser(ctx, externalID, models.PlaceholderUserName, ""); err != nil {
		return 0, false, err
	}
	id, err = s.userRepo.GetInternalID(ctx, externalID)
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (s *userService) GetUser(ctx context.Context, externalID int64) (*models.User, error) {
	return s.userRepo.GetByExternalID(ctx, externalID)
}
