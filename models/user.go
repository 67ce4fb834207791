package models

import (
	"time"

	"gorm.io/gorm"
)

// User is an account plus the health profile collected during onboarding.
// List-valued profile fields are stored comma-joined.
type User struct {
	gorm.Model
	Email    string `gorm:"uniqueIndex;not null"`
	Password string `gorm:"not null"`
	FullName string

	Birthday           time.Time
	Sex                string  `gorm:"size:16"`
	Height             float64 // cm
	Weight             float64 // kg
	ActivityLevel      string  `gorm:"size:32"`
	HealthConditions   string
	Allergies          string
	DietaryPreferences string
	Medications        string
	FitnessGoals       string
	ProfilePicture     string
	Onboarded          bool

	MFAEnabled    bool
	MFACode       string
	MFACodeExp    time.Time
	MFAAttempts   int
	ResetToken    string `gorm:"index"`
	ResetTokenExp time.Time
	Disabled      bool `gorm:"default:false"`
}
