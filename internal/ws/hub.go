package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// Event is a ledger change notification pushed to dashboard clients so
// they can refresh derived figures.
type Event struct {
	ID      uuid.UUID   `json:"id"`
	Type    string      `json:"type"`   // shipment_created, billing_updated, deposit_deleted, ...
	Entity  string      `json:"entity"` // shipment | billing | deposit
	Payload interface{} `json:"payload,omitempty"`
	Message string      `json:"message,omitempty"`
}

type Hub struct {
	Clients    map[*websocket.Conn]bool
	Register   chan *websocket.Conn
	Unregister chan *websocket.Conn
	Broadcast  chan []byte
	mutex      sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		Clients:    make(map[*websocket.Conn]bool),
		Register:   make(chan *websocket.Conn),
		Unregister: make(chan *websocket.Conn),
		Broadcast:  make(chan []byte),
	}
}

// Publish marshals a ledger event and hands it to the broadcast loop.
func (h *Hub) Publish(eventType, entity string, payload interface{}, message string) {
	evt := Event{
		ID:      uuid.New(),
		Type:    eventType,
		Entity:  entity,
		Payload: payload,
		Message: message,
	}
	msg, err := json.Marshal(evt)
	if err != nil {
		log.Printf("ws: marshal event %s: %v", eventType, err)
		return
	}
	h.Broadcast <- msg
}

func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.Register:
			h.mutex.Lock()
			h.Clients[conn] = true
			h.mutex.Unlock()
			log.Println("New WS client connected")

		case conn := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.Clients[conn]; ok {
				delete(h.Clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case message := <-h.Broadcast:
			h.mutex.Lock()
			for conn := range h.Clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					conn.Close()
					delete(h.Clients, conn)
				}
			}
			h.mutex.Unlock()
		}
	}
}
