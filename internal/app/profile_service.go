package app

import (
	"context"
	"errors"
	"fmt"

	"mealplanner/internal/domain"

	"go.uber.org/zap"
)

var (
	// ErrProfileNotFound indicates that the user has not completed onboarding.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrInvalidProfile indicates that a profile field is missing or out of range.
	ErrInvalidProfile = errors.New("invalid profile")
)

// ProfileService manages the user's biometrics and derived daily targets.
type ProfileService struct {
	repo domain.ProfileRepository
	log  *zap.Logger
}

// NewProfileService creates a ProfileService backed by repo.
func NewProfileService(repo domain.ProfileRepository, log *zap.Logger) *ProfileService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProfileService{repo: repo, log: log}
}

// ValidateProfile checks enums and ranges of p.
func ValidateProfile(p domain.UserNutritionProfile) error {
	switch {
	case !p.Gender.Valid():
		return fmt.Errorf("%w: gender must be male or female", ErrInvalidProfile)
	case p.Age <= 0 || p.Age > 120:
		return fmt.Errorf("%w: age must be between 1 and 120", ErrInvalidProfile)
	case p.WeightKg <= 0:
		return fmt.Errorf("%w: weight_kg must be > 0", ErrInvalidProfile)
	case p.HeightCm <= 0:
		return fmt.Errorf("%w: height_cm must be > 0", ErrInvalidProfile)
	case !p.ActivityLevel.Valid():
		return fmt.Errorf("%w: unknown activity_level %q", ErrInvalidProfile, p.ActivityLevel)
	case !p.Goal.Valid():
		return fmt.Errorf("%w: unknown goal %q", ErrInvalidProfile, p.Goal)
	case p.WeightLossRateKgWeek != nil && *p.WeightLossRateKgWeek < 0:
		return fmt.Errorf("%w: weight_loss_rate_kg_week must be >= 0", ErrInvalidProfile)
	}
	return nil
}

// PreviewGoals validates p and returns its targets without saving anything.
func (s *ProfileService) PreviewGoals(p domain.UserNutritionProfile) (domain.NutritionGoals, error) {
	if err := ValidateProfile(p); err != nil {
		return domain.NutritionGoals{}, err
	}
	return domain.CalculateNutritionGoals(p), nil
}

// SaveProfile validates p, recomputes the targets and stores both.
func (s *ProfileService) SaveProfile(ctx context.Context, userID int64, p domain.UserNutritionProfile) (*domain.Profile, error) {
	goals, err := s.PreviewGoals(p)
	if err != nil {
		return nil, err
	}
	if p.Goal != domain.GoalWeightLoss {
		p.WeightLossRateKgWeek = nil
	}

	saved, err := s.repo.UpsertProfile(ctx, domain.Profile{
		UserID:               userID,
		UserNutritionProfile: p,
		NutritionGoals:       goals,
	})
	if err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	s.log.Info("profile saved",
		zap.Int64("user_id", userID),
		zap.Int("target_calories", goals.TargetCalories),
	)
	return saved, nil
}

// GetProfile returns the stored profile.
func (s *ProfileService) GetProfile(ctx context.Context, userID int64) (*domain.Profile, error) {
	p, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if p == nil {
		return nil, ErrProfileNotFound
	}
	return p, nil
}
