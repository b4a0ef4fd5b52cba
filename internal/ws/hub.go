package ws

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/domain"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/logger"
)

// Envelope - формат исходящего сообщения
type Envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Hub хранит соединения и их подписки на каналы. Реализует domain.Gateway:
// менеджеры игр ничего не знают о websocket.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]map[string]*Client
	log     *slog.Logger
}

var _ domain.Gateway = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
		log:     logger.With("component", "ws_hub"),
	}
}

// register добавляет соединение и подписывает его на личный канал пользователя
func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()
	h.Join(c.ID, domain.UserChannel(c.UserID))
}

// unregister убирает соединение из всех каналов
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.ID]; !ok {
		return
	}
	delete(h.clients, c.ID)
	for name, members := range h.rooms {
		delete(members, c.ID)
		if len(members) == 0 {
			delete(h.rooms, name)
		}
	}
}

func (h *Hub) Join(connID, room string) {
	if connID == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[connID]
	if !ok {
		return
	}
	members := h.rooms[room]
	if members == nil {
		members = make(map[string]*Client)
		h.rooms[room] = members
	}
	members[connID] = c
}

func (h *Hub) Leave(connID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[room]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

func (h *Hub) Broadcast(room, event string, payload any) {
	msg, err := encode(event, payload)
	if err != nil {
		h.log.Error("failed to encode event", "error", err, "event", event, "room", room)
		return
	}
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.rooms[room]))
	for _, c := range h.rooms[room] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.enqueue(msg)
	}
}

func (h *Hub) Emit(connID, event string, payload any) {
	msg, err := encode(event, payload)
	if err != nil {
		h.log.Error("failed to encode event", "error", err, "event", event, "conn_id", connID)
		return
	}
	h.mu.RLock()
	c, ok := h.clients[connID]
	h.mu.RUnlock()
	if ok {
		c.enqueue(msg)
	}
}

// Members - число соединений в канале
func (h *Hub) Members(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func encode(event string, payload any) ([]byte, error) {
	return json.Marshal(Envelope{Type: event, Payload: payload})
}
