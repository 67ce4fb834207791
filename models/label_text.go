package models

import "time"

// LabelText caches OCR output keyed by the SHA-256 of the image bytes.
type LabelText struct {
	ID        uint   `gorm:"primaryKey"`
	ImageHash string `gorm:"size:64;not null;uniqueIndex:idx_label_hash_kind"`
	Kind      string `gorm:"size:16;not null;uniqueIndex:idx_label_hash_kind"`
	Text      string `gorm:"type:text"`
	CreatedAt time.Time
}
