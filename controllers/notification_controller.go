package controllers

import (
	"net/http"
	"strconv"

	"nutrilens/services"

	"github.com/gin-gonic/gin"
)

type NotificationController struct {
	Alerts *services.AlertService
}

func NewNotificationController(a *services.AlertService) *NotificationController {
	return &NotificationController{Alerts: a}
}

// GET /user/alerts?limit=50
func (nc *NotificationController) ListAlerts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	alerts, err := nc.Alerts.List(c.Request.Context(), c.GetUint("userID"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, alerts)
}

// POST /user/notifications/toggle
func (nc *NotificationController) Toggle(c *gin.Context) {
	var req struct {
		Enabled *bool `json:"enabled" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	if err := nc.Alerts.SetNotifications(c.Request.Context(), c.GetUint("userID"), *req.Enabled); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "notifications updated",
		"enabled": *req.Enabled,
	})
}
