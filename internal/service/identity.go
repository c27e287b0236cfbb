package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shogunhq/shogun/internal/domain"
	"github.com/shogunhq/shogun/internal/domain/user"
	"github.com/shogunhq/shogun/internal/port/database"
)

// IdentityService manages the user directory consulted by onboarding and
// promotion.
type IdentityService struct {
	store database.Store
}

// NewIdentityService creates a new IdentityService.
func NewIdentityService(store database.Store) *IdentityService {
	return &IdentityService{store: store}
}

// Create validates and stores a new user.
func (s *IdentityService) Create(ctx context.Context, req user.CreateRequest) (*user.User, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	now := utcNow()
	u := &user.User{
		ID:        uuid.NewString(),
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Active:    true,
		Staff:     req.Staff,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "user created", "user_id", u.ID)
	return u, nil
}

// Get returns a user by ID.
func (s *IdentityService) Get(ctx context.Context, id string) (*user.User, error) {
	return s.store.GetUser(ctx, id)
}

// List returns all users, newest first.
func (s *IdentityService) List(ctx context.Context) ([]user.User, error) {
	return s.store.ListUsers(ctx)
}
