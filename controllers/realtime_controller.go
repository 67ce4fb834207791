package controllers

import (
	"net/http"
	"strings"
	"time"

	"nutrilens/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type RealtimeController struct {
	RT      *services.RealtimeHub
	origins map[string]bool
}

func NewRealtimeController(rt *services.RealtimeHub, origins []string) *RealtimeController {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[strings.TrimRight(strings.TrimSpace(o), "/")] = true
	}
	return &RealtimeController{RT: rt, origins: allowed}
}

func (rc *RealtimeController) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || rc.origins["*"] || rc.origins[origin]
		},
	}
}

// GET /ws/alerts streams alert.created events for the authenticated user.
func (rc *RealtimeController) AlertsWS(c *gin.Context) {
	uid := c.GetUint("userID")

	up := rc.upgrader()
	conn, err := up.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	cl := &services.WSClient{UserID: uid, Conn: conn}
	rc.RT.Register(cl)

	done := make(chan struct{})
	defer close(done)

	go func() {
		t := time.NewTicker(25 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				if err := cl.Write(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	// Read loop ends on client close or error.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			rc.RT.Unregister(cl)
			return
		}
	}
}
