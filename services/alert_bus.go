package services

import (
	"context"
	"fmt"
	"time"

	"nutrilens/models"
	"nutrilens/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Pusher delivers a mobile push notification.
type Pusher interface {
	PushToUser(ctx context.Context, userID uint, title, body string, data map[string]string)
}

// AlertService records alerts and forwards them to open sockets and devices.
type AlertService struct {
	db   *gorm.DB
	rt   *RealtimeHub // optional
	push Pusher       // optional
}

func NewAlertService(db *gorm.DB, rt *RealtimeHub, push Pusher) *AlertService {
	return &AlertService{db: db, rt: rt, push: push}
}

func (a *AlertService) Emit(ctx context.Context, userID uint, typ, source, message string) {
	alert := &models.Alert{UserID: userID, Type: typ, Source: source, Message: message, CreatedAt: time.Now()}
	if err := a.db.WithContext(ctx).Create(alert).Error; err != nil {
		utils.Log.Warn("store alert failed", zap.Uint("user_id", userID), zap.Error(err))
		return
	}

	if a.rt != nil {
		a.rt.Broadcast(userID, map[string]any{"kind": "alert.created", "alert": alert})
	}
	if a.push != nil {
		// The request context ends with the response; push on its own.
		go a.push.PushToUser(context.Background(), userID, "NutriLens alert", message, map[string]string{
			"type": typ, "source": source, "alertId": fmt.Sprintf("%d", alert.ID),
		})
	}
}

func (a *AlertService) List(ctx context.Context, userID uint, limit int) ([]models.Alert, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var out []models.Alert
	err := a.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").Limit(limit).Find(&out).Error
	return out, err
}

func (a *AlertService) SetNotifications(ctx context.Context, userID uint, enabled bool) error {
	return a.db.WithContext(ctx).Model(&models.UserDevice{}).
		Where("user_id = ?", userID).
		Update("enabled", enabled).Error
}
