package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"nutrilens/models"
	"nutrilens/utils"

	"gorm.io/gorm"
)

// ImageUploader stores an image and returns its public URL.
type ImageUploader interface {
	UploadImage(ctx context.Context, prefix string, img utils.Image) (string, error)
}

type UserService struct {
	db     *gorm.DB
	images ImageUploader // optional
}

func NewUserService(db *gorm.DB, images ImageUploader) *UserService {
	return &UserService{db: db, images: images}
}

// Profile is the JSON view of a user's account and health profile.
type Profile struct {
	ID                 uint     `json:"id"`
	Email              string   `json:"email"`
	FullName           string   `json:"full_name"`
	Birthday           string   `json:"birthday,omitempty"`
	Age                int      `json:"age"`
	Sex                string   `json:"sex"`
	Height             float64  `json:"height"`
	Weight             float64  `json:"weight"`
	BMI                float64  `json:"bmi,omitempty"`
	BMICategory        string   `json:"bmi_category,omitempty"`
	ActivityLevel      string   `json:"activity_level"`
	HealthConditions   []string `json:"health_conditions"`
	Allergies          []string `json:"allergies"`
	DietaryPreferences []string `json:"dietary_preferences"`
	Medications        []string `json:"medications"`
	FitnessGoals       []string `json:"fitness_goals"`
	ProfilePicture     string   `json:"profile_picture,omitempty"`
	MFAEnabled         bool     `json:"mfa_enabled"`
	Onboarded          bool     `json:"onboarded"`
}

// OnboardingInput is the full health profile collected after sign-up.
type OnboardingInput struct {
	Birthday           string   `json:"birthday" binding:"required"` // YYYY-MM-DD
	Sex                string   `json:"sex"`
	Height             float64  `json:"height" binding:"required"`
	Weight             float64  `json:"weight" binding:"required"`
	ActivityLevel      string   `json:"activity_level"`
	HealthConditions   []string `json:"health_conditions"`
	Allergies          []string `json:"allergies"`
	DietaryPreferences []string `json:"dietary_preferences"`
	Medications        []string `json:"medications"`
	FitnessGoals       []string `json:"fitness_goals"`
	ProfilePicture     string   `json:"profile_picture"` // data URI
	MFAEnabled         bool     `json:"mfa_enabled"`
}

// ProfileUpdate changes only the fields that are set.
type ProfileUpdate struct {
	FullName           string    `json:"full_name"`
	Birthday           string    `json:"birthday"`
	Sex                string    `json:"sex"`
	Height             float64   `json:"height"`
	Weight             float64   `json:"weight"`
	ActivityLevel      string    `json:"activity_level"`
	HealthConditions   *[]string `json:"health_conditions"`
	Allergies          *[]string `json:"allergies"`
	DietaryPreferences *[]string `json:"dietary_preferences"`
	Medications        *[]string `json:"medications"`
	FitnessGoals       *[]string `json:"fitness_goals"`
	ProfilePicture     string    `json:"profile_picture"`
	MFAEnabled         *bool     `json:"mfa_enabled"`
}

func (s *UserService) FindActive(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("id = ? AND disabled = ?", userID, false).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) GetProfile(ctx context.Context, userID uint) (*Profile, error) {
	user, err := s.FindActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ProfileOf(user), nil
}

func (s *UserService) CompleteOnboarding(ctx context.Context, userID uint, in OnboardingInput) (*Profile, error) {
	user, err := s.FindActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	birthday, err := parseBirthday(in.Birthday)
	if err != nil {
		return nil, err
	}
	if _, err := utils.CalculateBMI(in.Height, in.Weight); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	user.Birthday = birthday
	user.Sex = strings.ToLower(strings.TrimSpace(in.Sex))
	user.Height = in.Height
	user.Weight = in.Weight
	user.ActivityLevel = in.ActivityLevel
	user.HealthConditions = utils.JoinList(in.HealthConditions)
	user.Allergies = utils.JoinList(in.Allergies)
	user.DietaryPreferences = utils.JoinList(in.DietaryPreferences)
	user.Medications = utils.JoinList(in.Medications)
	user.FitnessGoals = utils.JoinList(in.FitnessGoals)
	user.MFAEnabled = in.MFAEnabled

	if in.ProfilePicture != "" {
		if err := s.setPicture(ctx, user, in.ProfilePicture); err != nil {
			return nil, err
		}
	}

	user.Onboarded = true
	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		return nil, err
	}
	return ProfileOf(user), nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uint, in ProfileUpdate) (*Profile, error) {
	user, err := s.FindActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.FullName != "" {
		user.FullName = strings.TrimSpace(in.FullName)
	}
	if in.Birthday != "" {
		b, err := parseBirthday(in.Birthday)
		if err != nil {
			return nil, err
		}
		user.Birthday = b
	}
	if in.Sex != "" {
		user.Sex = strings.ToLower(strings.TrimSpace(in.Sex))
	}
	height, weight := user.Height, user.Weight
	if in.Height > 0 {
		height = in.Height
	}
	if in.Weight > 0 {
		weight = in.Weight
	}
	if in.Height > 0 || in.Weight > 0 {
		if _, err := utils.CalculateBMI(height, weight); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		user.Height, user.Weight = height, weight
	}
	if in.ActivityLevel != "" {
		user.ActivityLevel = in.ActivityLevel
	}
	if in.HealthConditions != nil {
		user.HealthConditions = utils.JoinList(*in.HealthConditions)
	}
	if in.Allergies != nil {
		user.Allergies = utils.JoinList(*in.Allergies)
	}
	if in.DietaryPreferences != nil {
		user.DietaryPreferences = utils.JoinList(*in.DietaryPreferences)
	}
	if in.Medications != nil {
		user.Medications = utils.JoinList(*in.Medications)
	}
	if in.FitnessGoals != nil {
		user.FitnessGoals = utils.JoinList(*in.FitnessGoals)
	}
	if in.MFAEnabled != nil {
		user.MFAEnabled = *in.MFAEnabled
	}
	if in.ProfilePicture != "" {
		if err := s.setPicture(ctx, user, in.ProfilePicture); err != nil {
			return nil, err
		}
	}

	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		return nil, err
	}
	return ProfileOf(user), nil
}

// DisableUser soft-deletes the account; history stays for audit.
func (s *UserService) DisableUser(ctx context.Context, userID uint) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND disabled = ?", userID, false).
		Update("disabled", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *UserService) setPicture(ctx context.Context, user *models.User, dataURI string) error {
	if s.images == nil {
		return fmt.Errorf("%w: profile pictures are not enabled", ErrValidation)
	}
	img, err := utils.DecodeDataURI(dataURI)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	url, err := s.images.UploadImage(ctx, fmt.Sprintf("profile-pictures/%d", user.ID), img)
	if err != nil {
		return fmt.Errorf("failed to upload profile picture: %w", err)
	}
	user.ProfilePicture = url
	return nil
}

func parseBirthday(s string) (time.Time, error) {
	b, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: birthday must be YYYY-MM-DD", ErrValidation)
	}
	if !b.Before(time.Now()) || b.Year() < 1900 {
		return time.Time{}, fmt.Errorf("%w: birthday out of range", ErrValidation)
	}
	return b, nil
}

func ProfileOf(u *models.User) *Profile {
	p := &Profile{
		ID:                 u.ID,
		Email:              u.Email,
		FullName:           u.FullName,
		Sex:                u.Sex,
		Height:             u.Height,
		Weight:             u.Weight,
		ActivityLevel:      u.ActivityLevel,
		HealthConditions:   splitColumn(u.HealthConditions),
		Allergies:          splitColumn(u.Allergies),
		DietaryPreferences: splitColumn(u.DietaryPreferences),
		Medications:        splitColumn(u.Medications),
		FitnessGoals:       splitColumn(u.FitnessGoals),
		ProfilePicture:     u.ProfilePicture,
		MFAEnabled:         u.MFAEnabled,
		Onboarded:          u.Onboarded,
	}
	if !u.Birthday.IsZero() {
		p.Birthday = u.Birthday.Format("2006-01-02")
		p.Age = utils.CalculateAge(u.Birthday)
	}
	if bmi, err := utils.CalculateBMI(u.Height, u.Weight); err == nil {
		p.BMI = bmi
		p.BMICategory = utils.BMICategory(bmi)
	}
	return p
}

// Summary is the profile as handed to prompts.
func (p *Profile) Summary() ProfileSummary {
	return ProfileSummary{
		Age:                p.Age,
		Sex:                p.Sex,
		HeightCm:           p.Height,
		WeightKg:           p.Weight,
		BMI:                p.BMI,
		ActivityLevel:      p.ActivityLevel,
		Conditions:         p.HealthConditions,
		Allergies:          p.Allergies,
		DietaryPreferences: p.DietaryPreferences,
		Medications:        p.Medications,
		Goals:              p.FitnessGoals,
	}
}

// AssessmentContext is the profile as handed to the rule engine.
func (p *Profile) AssessmentContext() utils.AssessmentContext {
	return utils.AssessmentContext{
		AgeYears:           p.Age,
		Sex:                p.Sex,
		Conditions:         p.HealthConditions,
		Allergies:          p.Allergies,
		DietaryPreferences: p.DietaryPreferences,
		Medications:        p.Medications,
	}
}

func splitColumn(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
