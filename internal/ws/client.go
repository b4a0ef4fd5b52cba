package ws

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/logger"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 30 * time.Second
	pingPeriod     = 25 * time.Second
	maxMessageSize = 8192
	sendBuffer     = 256
)

// Client - одно websocket соединение пользователя. У пользователя может
// быть несколько соединений (вкладок), у каждого свой ID.
type Client struct {
	ID     string
	UserID int64
	Name   string

	conn   *websocket.Conn
	hub    *Hub
	router *Router
	send   chan []byte
	done   chan struct{}
	once   sync.Once
	log    *slog.Logger
}

func NewClient(hub *Hub, router *Router, conn *websocket.Conn, userID int64, name string) *Client {
	id := uuid.NewString()
	return &Client{
		ID:     id,
		UserID: userID,
		Name:   name,
		conn:   conn,
		hub:    hub,
		router: router,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
		log:    logger.With("component", "ws_client", "conn_id", id, "user_id", userID),
	}
}

func (c *Client) caller() Caller {
	return Caller{ConnID: c.ID, UserID: c.UserID, Name: c.Name}
}

// Run регистрирует соединение и блокируется до его закрытия
func (c *Client) Run() {
	c.hub.register(c)
	metrics.WSConnections.Inc()
	c.log.Info("client connected")

	go c.writePump()
	c.readPump()
}

// enqueue не блокируется: клиент, который не успевает читать, отключается
func (c *Client) enqueue(msg []byte) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- msg:
	default:
		c.log.Warn("send buffer full, closing connection")
		c.close()
	}
}

func (c *Client) close() {
	c.once.Do(func() {
		close(c.done)
		c.hub.unregister(c)
		metrics.WSConnections.Dec()
		if c.router != nil {
			c.router.Disconnect(c.caller())
		}
		c.log.Info("client disconnected")
	})
}

func (c *Client) readPump() {
	defer func() {
		c.close()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("read error", "error", err)
			}
			return
		}
		c.router.Dispatch(context.Background(), c.caller(), msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.log.Warn("write error", "error", err)
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
