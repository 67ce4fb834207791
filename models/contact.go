package models

import "gorm.io/gorm"

// Contact is a message submitted through the public contact form.
type Contact struct {
	gorm.Model
	Reference string `gorm:"size:36;uniqueIndex"`
	Name      string `gorm:"size:120;not null"`
	Email     string `gorm:"size:320;not null"`
	Subject   string `gorm:"size:200"`
	Message   string `gorm:"type:text;not null"`
	EmailSent bool
}
