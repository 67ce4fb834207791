package controllers

import (
	"net/http/httptest"
	"testing"

	"nutrilens/services"

	"github.com/stretchr/testify/assert"
)

func TestRealtimeOriginCheck(t *testing.T) {
	rc := NewRealtimeController(services.NewRealtimeHub(), []string{" https://app.nutrilens.io/ ", "http://localhost:5173"})
	check := rc.upgrader().CheckOrigin

	for origin, want := range map[string]bool{
		"https://app.nutrilens.io": true,
		"http://localhost:5173":    true,
		"":                         true,
		"https://evil.example":     false,
	} {
		req := httptest.NewRequest("GET", "/ws/alerts", nil)
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		assert.Equal(t, want, check(req), origin)
	}
}
