package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"nutrilens/models"
	"nutrilens/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNoText = errors.New("no readable text found on the label")

// LabelReader returns OCR text for an image, reading through a cache keyed
// by the SHA-256 of the image bytes and the scan kind.
type LabelReader struct {
	db  *gorm.DB
	ocr TextExtractor
}

func NewLabelReader(db *gorm.DB, ocr TextExtractor) *LabelReader {
	return &LabelReader{db: db, ocr: ocr}
}

// Read returns the label text and whether it came from the cache.
func (r *LabelReader) Read(ctx context.Context, kind string, img utils.Image) (string, bool, error) {
	hash := img.Hash()

	var cached models.LabelText
	err := r.db.WithContext(ctx).Where("image_hash = ? AND kind = ?", hash, kind).First(&cached).Error
	switch {
	case err == nil:
		if strings.TrimSpace(cached.Text) == "" {
			return "", true, ErrNoText
		}
		return cached.Text, true, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return "", false, fmt.Errorf("label cache lookup: %w", err)
	}

	text, err := r.ocr.ExtractText(ctx, img)
	if err != nil {
		return "", false, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false, ErrNoText
	}

	// A concurrent request may have stored the same image first.
	row := models.LabelText{ImageHash: hash, Kind: kind, Text: text}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		utils.Log.Warn("label cache store failed", zap.String("hash", hash), zap.Error(err))
	}
	return text, false, nil
}
