package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/fanguan/pos-app/kds"
	"github.com/fanguan/pos-app/store"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // displays live on the restaurant LAN
	},
}

// KDSHandler upgrades a display connection and keeps it registered on
// the hub until it drops. The freshly connected display gets the
// current document straight away so it never renders from nothing.
func KDSHandler(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.Query("role")
		if role != "counter" && role != "kitchen" {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}

		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}

		kds.RegisterClient(ws, role)
		kds.SendDocument(ws, st.Document())

		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				break
			}
		}

		kds.UnregisterClient(ws)
	}
}
