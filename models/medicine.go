package models

import "gorm.io/gorm"

// Medicine is one analysed photo of a medicine label or package.
type Medicine struct {
	gorm.Model
	UserID        uint   `gorm:"index;not null"`
	ImageHash     string `gorm:"size:64;index"`
	ImageURL      string
	Name          string
	GenericName   string
	ExtractedText string `gorm:"type:text"`
	SafeForUser   bool
	Analysis      string `gorm:"type:text"` // JSON
	Warnings      string `gorm:"type:text"` // JSON
}
