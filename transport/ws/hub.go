package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"resort/config"
	"resort/internal/domains/notification/model"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	defaultSendBuffer = 64
	maxMessageSize    = 512
)

// Hub fans booking events out to connected staff dashboards.
type Hub struct {
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}
	upgrader   websocket.Upgrader
	cfg        *config.Config
	mu         sync.RWMutex
}

type client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func New(cfg *config.Config) *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, bufferSize(cfg)),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		cfg: cfg,
	}
}

// Run owns the client set until ctx is done, then closes every connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

			log.Info().Msg("websocket hub stopped")

			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			total := len(h.clients)
			h.mu.Unlock()

			log.Info().Str("client_id", c.id).Int("total", total).Msg("websocket client registered")

		case c := <-h.unregister:
			h.remove(c)

		case data := <-h.broadcast:
			h.mu.RLock()
			targets := make([]*client, 0, len(h.clients))
			for c := range h.clients {
				targets = append(targets, c)
			}
			h.mu.RUnlock()

			for _, c := range targets {
				select {
				case c.send <- data:
				default:
					log.Warn().Str("client_id", c.id).Msg("websocket client too slow, dropping")
					h.remove(c)
				}
			}
		}
	}
}

// Broadcast queues an event for every client. It never blocks; a full queue drops the event.
func (h *Hub) Broadcast(event model.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal websocket event")

		return
	}

	select {
	case h.broadcast <- data:
	default:
		log.Warn().Str("type", event.Type).Msg("websocket broadcast queue full, event dropped")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

// ServeHTTP upgrades the request and attaches the connection to the hub.
func (h *Hub) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	conn, err := h.upgrader.Upgrade(writer, request, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade websocket connection")

		return
	}

	c := &client{
		id:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, bufferSize(h.cfg)),
	}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()

		return
	}

	go c.writePump()
	go c.readPump()
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}

	delete(h.clients, c)
	close(c.send)

	log.Info().Str("client_id", c.id).Int("remaining", len(h.clients)).Msg("websocket client unregistered")
}

// readPump drains control frames so pongs are seen. Dashboards never send data.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}

		c.conn.Close()
	}()

	pongWait := c.hub.pongWait()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("client_id", c.id).Msg("websocket closed unexpectedly")
			}

			return
		}
	}
}

func (c *client) writePump() {
	writeWait := c.hub.writeWait()
	ticker := time.NewTicker(c.hub.pongWait() * 9 / 10)

	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})

				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) writeWait() time.Duration {
	if h.cfg.Websocket.WriteWaitSecond <= 0 {
		return 10 * time.Second
	}

	return time.Duration(h.cfg.Websocket.WriteWaitSecond) * time.Second
}

func (h *Hub) pongWait() time.Duration {
	if h.cfg.Websocket.PongWaitSecond <= 0 {
		return time.Minute
	}

	return time.Duration(h.cfg.Websocket.PongWaitSecond) * time.Second
}

func bufferSize(cfg *config.Config) int {
	if cfg.Websocket.SendBufferSize <= 0 {
		return defaultSendBuffer
	}

	return cfg.Websocket.SendBufferSize
}
