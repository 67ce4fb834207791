package services

import (
	"context"
	"fmt"

	"nutrilens/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ScanDeps are shared by the food and medicine scanners.
type ScanDeps struct {
	DB     *gorm.DB
	Reader *LabelReader
	AI     Generator
	Users  *UserService
	Alerts *AlertService // optional
	Images ImageUploader // optional
}

// scanInput is what both scanners gather before asking the model.
type scanInput struct {
	profile  *Profile
	text     string
	cached   bool
	hash     string
	imageURL string
}

func (d *ScanDeps) prepare(ctx context.Context, userID uint, kind string, img utils.Image) (*scanInput, error) {
	profile, err := d.Users.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	text, cached, err := d.Reader.Read(ctx, kind, img)
	if err != nil {
		return nil, err
	}

	in := &scanInput{profile: profile, text: text, cached: cached, hash: img.Hash()}
	if d.Images != nil {
		url, err := d.Images.UploadImage(ctx, fmt.Sprintf("scans/%s/%d", kind, userID), img)
		if err != nil {
			utils.Log.Warn("scan image upload failed", zap.String("kind", kind), zap.Error(err))
		} else {
			in.imageURL = url
		}
	}
	return in, nil
}

func (d *ScanDeps) alert(ctx context.Context, userID uint, source, message string) {
	if d.Alerts != nil {
		d.Alerts.Emit(ctx, userID, "warning", source, message)
	}
}
