package handlers

import (
	"net/http"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/anirudhnegi03/tarunet/internal/middleware"
	"github.com/anirudhnegi03/tarunet/internal/notify"
)

// NotificationsWSHandler upgrades the connection and registers it with the
// hub so the user receives friend events live. The socket is one-way; inbound
// frames are drained only to detect the close.
func NotificationsWSHandler(logger *logrus.Logger, hub *notify.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"notify"},
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != "notify" {
			c.Close(websocket.StatusPolicyViolation, "client must speak the notify subprotocol")
			return
		}

		unregister := hub.Register(userID, c)
		defer unregister()

		logger.WithFields(logrus.Fields{
			"user":   userID,
			"remote": r.RemoteAddr,
		}).Info("notification socket connected")

		ctx := r.Context()
		for {
			if _, _, err := c.Read(ctx); err != nil {
				break
			}
		}

		c.Close(websocket.StatusNormalClosure, "")
	}
}
