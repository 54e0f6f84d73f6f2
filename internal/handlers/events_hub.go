// mentor-academy-crm/internal/handlers/events_hub.go
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Для разработки разрешаем все источники
	},
}

// GlobalHub - единственный экземпляр хаба для всего приложения.
// Через него админские дашборды получают события в реальном времени:
// новая заявка на зачисление, новый платёж.
var GlobalHub = NewHub()

// Event — сообщение, рассылаемое подключённым администраторам.
type Event struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID uint
}

type Hub struct {
	clients    map[uint]*Client
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint]*Client),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run обрабатывает регистрацию клиентов и рассылку. Запускается один раз в main.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			// Повторное подключение того же пользователя вытесняет старое.
			if old, ok := h.clients[client.userID]; ok {
				close(old.send)
			}
			h.clients[client.userID] = client
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if current, ok := h.clients[client.userID]; ok && current == client {
				delete(h.clients, client.userID)
				close(client.send)
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for userID, client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Клиент не успевает читать — отключаем.
					close(client.send)
					delete(h.clients, userID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastEvent сериализует событие и рассылает всем подключённым админам.
func (h *Hub) BroadcastEvent(eventType string, payload interface{}) {
	data, err := json.Marshal(Event{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now(),
	})
	if err != nil {
		slog.Error("Не удалось сериализовать событие", "error", err, "type", eventType)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		slog.Warn("Очередь рассылки переполнена, событие отброшено", "type", eventType)
	}
}

// EventsWSEndpoint апгрейдит соединение и подключает админа к хабу.
func EventsWSEndpoint(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Пользователь не определён"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("Не удалось установить websocket-соединение", "error", err)
		return
	}

	client := &Client{
		hub:    GlobalHub,
		conn:   conn,
		send:   make(chan []byte, 16),
		userID: userID,
	}
	GlobalHub.register <- client

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	// Входящие сообщения не используются, читаем только ради закрытия.
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
