package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"smartpole/internal/logger"
	ws "smartpole/internal/service/websocket"
)

// Upgrader upgrades HTTP connections to WebSocket; CheckOrigin allows all origins.
var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// AlertsWebsocketHandler registers viewers in the hub so they receive every accident alert.
func AlertsWebsocketHandler(hub *ws.HubService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}

		if !hub.Register(connection) {
			return
		}
		defer hub.Unregister(connection)

		logger.Info("Alert viewer connected from %s", r.RemoteAddr)

		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Info("Alert viewer disconnected normally")
				} else {
					logger.Warning("Alert viewer disconnected: %v", err)
				}
				return
			}
		}
	}
}
