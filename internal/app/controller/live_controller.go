package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/kapehan/cafe-pos/internal/middleware"
	ws "github.com/kapehan/cafe-pos/internal/websocket"
)

type LiveController struct {
	hub      *ws.Hub
	upgrader gorillaws.Upgrader
}

// NewLiveController allows upgrades from allowedOrigins; "*" allows any.
func NewLiveController(hub *ws.Hub, allowedOrigins []string) *LiveController {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}

	return &LiveController{
		hub: hub,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origins["*"] || origins[origin]
			},
		},
	}
}

// Dashboard upgrades to a websocket that receives dashboard events
// GET /api/v1/ws/dashboard?token=
func (ctrl *LiveController) Dashboard(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket", err)
		return
	}

	client := ws.NewClient(ctrl.hub, &ws.Conn{Conn: conn}, userID, ws.TopicDashboard)
	ctrl.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	log.Info("WebSocket connection established", map[string]interface{}{
		"user_id": userID,
		"topic":   ws.TopicDashboard,
	})
}
