package ws

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/rs/zerolog"
)

// Inventory event types pushed to dashboard clients.
const (
	EventStockUpdate       = "stock_update"
	EventProcurementUpdate = "procurement_update"
	EventSettingsUpdate    = "settings_update"
)

type Hub struct {
	Clients    map[*websocket.Conn]bool
	Register   chan *websocket.Conn
	Unregister chan *websocket.Conn
	Broadcast  chan []byte
	mutex      sync.Mutex
	log        zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		Clients:    make(map[*websocket.Conn]bool),
		Register:   make(chan *websocket.Conn),
		Unregister: make(chan *websocket.Conn),
		Broadcast:  make(chan []byte, 64),
		log:        log.With().Str("component", "ws").Logger(),
	}
}

// Publish marshals payload and queues it for every connected client. A nil hub drops it,
// and so does a full broadcast queue.
func (h *Hub) Publish(payload map[string]interface{}) {
	if h == nil {
		return
	}
	msg, err := json.Marshal(payload)
	if err != nil {
		h.log.Error().Err(err).Msg("marshal ws payload")
		return
	}
	select {
	case h.Broadcast <- msg:
	default:
		h.log.Warn().Int("queued", len(h.Broadcast)).Msg("ws broadcast queue full, event dropped")
	}
}

// ClientCount is the number of connected sockets.
func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.Clients)
}

func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.Register:
			h.mutex.Lock()
			h.Clients[conn] = true
			h.mutex.Unlock()
			h.log.Debug().Msg("ws client connected")

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
					h.log.Debug().Err(err).Msg("dropping ws client")
					conn.Close()
					delete(h.Clients, conn)
				}
			}
			h.mutex.Unlock()
		}
	}
}
