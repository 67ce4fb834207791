package models

import "gorm.io/gorm"

// FoodScan is one analysed photo of a food label.
type FoodScan struct {
	gorm.Model
	UserID        uint   `gorm:"index;not null"`
	ImageHash     string `gorm:"size:64;index"`
	ImageURL      string
	ProductName   string
	ExtractedText string `gorm:"type:text"`
	HealthScore   int
	Verdict       string `gorm:"size:16"`   // "safe" | "caution" | "avoid"
	Analysis      string `gorm:"type:text"` // JSON
	Warnings      string `gorm:"type:text"` // JSON
}
