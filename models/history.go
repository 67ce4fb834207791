package models

import "gorm.io/gorm"

const (
	HistoryFood     = "food"
	HistoryMedicine = "medicine"
	HistorySymptom  = "symptom"
)

// History is the user-facing timeline entry for every scan or symptom check.
type History struct {
	gorm.Model
	UserID  uint   `gorm:"index;not null"`
	Kind    string `gorm:"size:16;index;not null"`
	RefID   uint   // FoodScan/Medicine id; 0 for symptom checks
	Title   string
	Summary string `gorm:"type:text"`
	Payload string `gorm:"type:text"` // JSON
}
