package services

import (
	"context"
	"testing"

	"nutrilens/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlertEmitStoresAndLists(t *testing.T) {
	db := newTestDB(t)
	hub := NewRealtimeHub()
	svc := NewAlertService(db, hub, nil)
	ctx := context.Background()

	svc.Emit(ctx, 1, "warning", models.HistoryFood, "first")
	svc.Emit(ctx, 1, "info", models.HistoryMedicine, "second")
	svc.Emit(ctx, 2, "warning", models.HistoryFood, "someone else")

	alerts, err := svc.List(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, "second", alerts[0].Message)
	assert.Equal(t, "first", alerts[1].Message)
	assert.Zero(t, hub.Connected(1))
}

func TestSetNotifications(t *testing.T) {
	db := newTestDB(t)
	svc := NewAlertService(db, nil, nil)
	require.NoError(t, db.Create(&models.UserDevice{UserID: 7, Platform: "android", TokenHash: "h", EndpointARN: "arn", Enabled: true}).Error)

	require.NoError(t, svc.SetNotifications(context.Background(), 7, false))

	var dev models.UserDevice
	require.NoError(t, db.Where("user_id = ?", 7).First(&dev).Error)
	assert.False(t, dev.Enabled)
}
