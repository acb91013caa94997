package ws

import (
	"net/http"

	"sniperok/internal/domain"
	"sniperok/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// IdentityParser resolves a session token into an identity.
type IdentityParser interface {
	Parse(token string) (domain.Identity, error)
}

// HandleWS upgrades GET /ws. The token query parameter is optional: without it
// the connection is a guest that can only take part in game rooms.
func HandleWS(hub *Hub, auth IdentityParser, allowedOrigin string) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" || allowedOrigin == "*" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}

	return func(c *gin.Context) {
		var identity domain.Identity
		if token := c.Query("token"); token != "" {
			id, err := auth.Parse(token)
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				return
			}
			identity = id
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("ws upgrade error", "error", err)
			return
		}

		client := newClient(hub, conn, identity)
		hub.register(client)
		go client.writePump()
		go client.readPump()
	}
}
