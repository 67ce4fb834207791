package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"nutrilens/models"
	"nutrilens/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PushService registers mobile devices with SNS and publishes alerts to them.
type PushService struct {
	db             *gorm.DB
	sns            *awssns.Client
	fcmPlatformArn string
}

func NewPushService(ctx context.Context, db *gorm.DB, region, fcmPlatformArn string) (*PushService, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &PushService{
		db:             db,
		sns:            awssns.NewFromConfig(cfg),
		fcmPlatformArn: fcmPlatformArn,
	}, nil
}

type RegisterDeviceReq struct {
	Platform string `json:"platform" binding:"required"` // "android" | "ios"
	Token    string `json:"token" binding:"required"`
}

func tokenHash(tok string) string {
	h := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(h[:])
}

func (p *PushService) platformArn(platform string) (string, error) {
	switch strings.ToLower(platform) {
	case "android", "ios":
		if p.fcmPlatformArn == "" {
			return "", errors.New("SNS_FCM_ARN not set")
		}
		return p.fcmPlatformArn, nil
	default:
		return "", errors.New("unknown platform")
	}
}

func (p *PushService) RegisterDevice(ctx context.Context, userID uint, platform, token string) (*models.UserDevice, error) {
	appArn, err := p.platformArn(platform)
	if err != nil {
		return nil, err
	}

	out, err := p.sns.CreatePlatformEndpoint(ctx, &awssns.CreatePlatformEndpointInput{
		PlatformApplicationArn: aws.String(appArn),
		Token:                  aws.String(token),
	})
	if err != nil {
		return nil, err
	}

	hash := tokenHash(token)
	var dev models.UserDevice
	err = p.db.WithContext(ctx).Where("user_id = ? AND token_hash = ?", userID, hash).First(&dev).Error
	if err == nil {
		dev.EndpointARN = aws.ToString(out.EndpointArn)
		dev.Platform = strings.ToLower(platform)
		dev.UpdatedAt = time.Now()
		return &dev, p.db.WithContext(ctx).Save(&dev).Error
	}

	dev = models.UserDevice{
		UserID:      userID,
		Platform:    strings.ToLower(platform),
		TokenHash:   hash,
		EndpointARN: aws.ToString(out.EndpointArn),
		Enabled:     true,
	}
	return &dev, p.db.WithContext(ctx).Create(&dev).Error
}

// PushToUser publishes to every enabled device. Failures are logged.
func (p *PushService) PushToUser(ctx context.Context, userID uint, title, body string, data map[string]string) {
	var devices []models.UserDevice
	if err := p.db.WithContext(ctx).Where("user_id = ? AND enabled = ?", userID, true).Find(&devices).Error; err != nil {
		utils.Log.Warn("load devices failed", zap.Uint("user_id", userID), zap.Error(err))
		return
	}
	if len(devices) == 0 {
		return
	}

	gcm, _ := json.Marshal(map[string]any{
		"notification": map[string]string{"title": title, "body": body},
		"data":         data,
	})
	raw, _ := json.Marshal(map[string]string{"default": body, "GCM": string(gcm)})

	for _, d := range devices {
		_, err := p.sns.Publish(ctx, &awssns.PublishInput{
			MessageStructure: aws.String("json"),
			Message:          aws.String(string(raw)),
			TargetArn:        aws.String(d.EndpointARN),
		})
		if err != nil {
			utils.Log.Warn("push publish failed", zap.Uint("device_id", d.ID), zap.Error(err))
		}
	}
}
