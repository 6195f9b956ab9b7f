package kds

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/fanguan/pos-app/models"
	"github.com/fanguan/pos-app/utils"
)

// Event types pushed to connected displays.
const (
	// EventDocumentUpdate carries the full shared document; displays
	// re-render from it rather than patching.
	EventDocumentUpdate = "document_update"
	// EventOrderAlert fires when the pending-order count strictly
	// increased; the kitchen display plays its chime on it.
	EventOrderAlert = "order_alert"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub holds every connected display screen (counter or kitchen) and
// fans broadcast messages out to all of them.
type Hub struct {
	clients map[*websocket.Conn]string // conn -> role
	mutex   sync.Mutex
}

var hub = Hub{
	clients: make(map[*websocket.Conn]string),
}

// RegisterClient adds a display connection with its role.
func RegisterClient(conn *websocket.Conn, role string) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	hub.clients[conn] = role
}

// UnregisterClient drops a display connection.
func UnregisterClient(conn *websocket.Conn) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	delete(hub.clients, conn)
	conn.Close()
}

// BroadcastDocument pushes the current document snapshot to every
// connected display.
func BroadcastDocument(doc *models.Document) {
	broadcast(Message{
		Event: EventDocumentUpdate,
		Data:  doc,
	})
}

// BroadcastOrderAlert tells displays a new pending order arrived. The
// audible and visual parts of the notification are rendered client
// side.
func BroadcastOrderAlert(pending int) {
	broadcast(Message{
		Event: EventOrderAlert,
		Data: map[string]interface{}{
			"pending": pending,
			"title":   "New order",
			"body":    "A new order needs the kitchen",
		},
	})
}

// SendDocument pushes the current snapshot to a single freshly
// connected display.
func SendDocument(conn *websocket.Conn, doc *models.Document) {
	data, err := json.Marshal(Message{Event: EventDocumentUpdate, Data: doc})
	if err != nil {
		utils.ErrorLogger.Printf("Error marshaling hub message: %v", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		utils.ErrorLogger.Printf("Error sending snapshot to new display: %v", err)
	}
}

func broadcast(msg Message) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Printf("Error marshaling hub message: %v", err)
		return
	}

	for conn, role := range hub.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			utils.ErrorLogger.Printf("Error sending to %s display: %v", role, err)
			continue
		}
	}
}
