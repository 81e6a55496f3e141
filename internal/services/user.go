package services

import (
	"context"

	"github.com/roomatch/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	List(ctx context.Context) ([]types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
}

// UserProfilePatch carries the mutable profile fields of a user. Nil fields
// are left untouched.
type UserProfilePatch struct {
	Name            *string
	Phone           *string
	Gender          *string
	Religion        *string
	Languages       []string
	Occupation      *string
	CityCurrent     *string
	PreferredCities []string
	WorkSchedule    *string
	Preferences     *types.UserPreferences
}

// UserService encapsulates identity use-cases.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) GetByID(ctx context.Context, id string) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *UserService) List(ctx context.Context) ([]types.User, error) {
	return s.repo.List(ctx)
}

func (s *UserService) Create(ctx context.Context, user types.User) (types.User, error) {
	return s.repo.Create(ctx, user)
}

// UpdateProfile applies the non-nil patch fields to the user's profile.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, patch UserProfilePatch) (types.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return types.User{}, err
	}

	if patch.Name != nil {
		user.Name = *patch.Name
	}
	if patch.Phone != nil {
		user.Phone = *patch.Phone
	}
	if patch.Gender != nil {
		user.Gender = *patch.Gender
	}
	if patch.Religion != nil {
		user.Religion = *patch.Religion
	}
	if patch.Languages != nil {
		user.Languages = patch.Languages
	}
	if patch.Occupation != nil {
		user.Occupation = *patch.Occupation
	}
	if patch.CityCurrent != nil {
		user.CityCurrent = *patch.CityCurrent
	}
	if patch.PreferredCities != nil {
		user.PreferredCities = patch.PreferredCities
	}
	if patch.WorkSchedule != nil {
		user.WorkSchedule = *patch.WorkSchedule
	}
	if patch.Preferences != nil {
		user.Preferences = patch.Preferences
	}

	return s.repo.Update(ctx, user)
}

// Suspend flips the user's phone verification off. Users are never
// hard-deleted.
func (s *UserService) Suspend(ctx context.Context, userID string) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	user.IsPhoneVerified = false
	_, err = s.repo.Update(ctx, user)
	return err
}

// ApplyRating stores a freshly recomputed rating aggregate on the user.
func (s *UserService) ApplyRating(ctx context.Context, userID string, count int, avg float64) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	user.RatingCount = count
	user.RatingAvg = avg
	_, err = s.repo.Update(ctx, user)
	return err
}
