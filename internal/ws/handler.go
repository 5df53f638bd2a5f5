package ws

import (
	"context"
	"net/http"

	"boostd/internal/logger"
	"boostd/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// HandleWS upgrades /ws?token=…&boost_id=… into a live boost game session.
// allowedOrigin restricts the Origin header when set.
func HandleWS(hub *Hub, allowedOrigin string) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}

	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}

		userID, err := service.ParseJWT(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		boostID := c.Query("boost_id")
		if boostID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "boost_id required"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("ws upgrade error", "error", err)
			return
		}

		client := NewClient(service.User{ID: userID, Token: token}, boostID, conn, hub)
		go client.Run(context.WithoutCancel(c.Request.Context()))
	}
}
