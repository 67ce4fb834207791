package services

import (
	"context"
	"encoding/base64"
	"testing"

	"nutrilens/models"
	"nutrilens/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	prefixes []string
}

func (f *fakeUploader) UploadImage(_ context.Context, prefix string, _ utils.Image) (string, error) {
	f.prefixes = append(f.prefixes, prefix)
	return "https://cdn.example.com/" + prefix + "/pic.png", nil
}

func TestCompleteOnboarding(t *testing.T) {
	db := newTestDB(t)
	uploader := &fakeUploader{}
	svc := NewUserService(db, uploader)
	user := createUser(t, db, "new@example.com", func(u *models.User) { u.Onboarded = false })

	pic := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("\x89PNG\r\n\x1a\nface"))
	p, err := svc.CompleteOnboarding(context.Background(), user.ID, OnboardingInput{
		Birthday:         "1990-01-15",
		Sex:              " Female ",
		Height:           165,
		Weight:           60,
		ActivityLevel:    "moderate",
		HealthConditions: []string{"Type 2 diabetes", " "},
		Allergies:        []string{"peanuts", "shellfish"},
		ProfilePicture:   pic,
	})
	require.NoError(t, err)
	assert.True(t, p.Onboarded)
	assert.Equal(t, "female", p.Sex)
	assert.Equal(t, "1990-01-15", p.Birthday)
	assert.Greater(t, p.Age, 30)
	assert.Equal(t, 22.0, p.BMI)
	assert.Equal(t, "Normal weight", p.BMICategory)
	assert.Equal(t, []string{"Type 2 diabetes"}, p.HealthConditions)
	assert.Equal(t, []string{"peanuts", "shellfish"}, p.Allergies)
	assert.Equal(t, []string{}, p.Medications)
	assert.Contains(t, p.ProfilePicture, "profile-pictures/")

	var stored models.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.Equal(t, "peanuts,shellfish", stored.Allergies)
}

func TestCompleteOnboardingValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, nil)
	user := createUser(t, db, "bad@example.com", nil)
	ctx := context.Background()

	cases := map[string]OnboardingInput{
		"birthday format": {Birthday: "15/01/1990", Height: 170, Weight: 70},
		"future birthday": {Birthday: "2999-01-01", Height: 170, Weight: 70},
		"height":          {Birthday: "1990-01-15", Height: 20, Weight: 70},
		"weight":          {Birthday: "1990-01-15", Height: 170, Weight: 900},
		"picture off":     {Birthday: "1990-01-15", Height: 170, Weight: 70, ProfilePicture: "data:image/png;base64,AAAA"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CompleteOnboarding(ctx, user.ID, in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestUpdateProfilePartial(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, nil)
	user := createUser(t, db, "upd@example.com", func(u *models.User) {
		u.Allergies = "milk"
		u.Medications = "metformin"
	})

	allergies := []string{}
	mfa := true
	p, err := svc.UpdateProfile(context.Background(), user.ID, ProfileUpdate{
		FullName:   "Renamed",
		Weight:     75,
		Allergies:  &allergies,
		MFAEnabled: &mfa,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", p.FullName)
	assert.Equal(t, 75.0, p.Weight)
	assert.Equal(t, 170.0, p.Height)
	assert.Empty(t, p.Allergies)
	assert.Equal(t, []string{"metformin"}, p.Medications)
	assert.True(t, p.MFAEnabled)

	_, err = svc.UpdateProfile(context.Background(), user.ID, ProfileUpdate{Height: 400})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDisableUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, nil)
	user := createUser(t, db, "bye@example.com", nil)

	require.NoError(t, svc.DisableUser(context.Background(), user.ID))
	_, err := svc.GetProfile(context.Background(), user.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, svc.DisableUser(context.Background(), user.ID), ErrUserNotFound)
}
