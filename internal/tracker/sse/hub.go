package sse

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Event types
const (
	EventConnected      = "connected"
	EventHarnessUpdate  = "harness_update"
	EventShipmentUpdate = "shipment_update"
	EventReportUpdate   = "report_update"
	EventSessionExpired = "session_expired"
)

// ClientBuffer is the per-client event buffer size
const ClientBuffer = 64

// Event represents a Server-Sent Event
type Event struct {
	EventType string `json:"event"`
	Data      string `json:"data"`
}

// Client represents a connected SSE client
type Client struct {
	ID     string
	UserID string
	Role   string
	Events chan Event
}

// NewClient creates a client with the standard buffer
func NewClient(id, userID, role string) *Client {
	return &Client{
		ID:     id,
		UserID: userID,
		Role:   role,
		Events: make(chan Event, ClientBuffer),
	}
}

// Hub manages all SSE client connections
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *zap.Logger
}

// NewHub creates a new SSE Hub
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger,
	}
}

// Register adds a new client to the hub
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	h.logger.Debug("sse client registered",
		zap.String("client_id", client.ID),
		zap.String("user_id", client.UserID),
		zap.Int("total", len(h.clients)))
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Events)
		delete(h.clients, clientID)
		h.logger.Debug("sse client unregistered",
			zap.String("client_id", clientID),
			zap.Int("total", len(h.clients)))
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends an event to all connected clients
func (h *Hub) Broadcast(event Event) {
	h.deliver(event, func(*Client) bool { return true })
}

// SendToUser sends an event to every stream of one user
func (h *Hub) SendToUser(userID string, event Event) {
	h.deliver(event, func(c *Client) bool { return c.UserID == userID })
}

func (h *Hub) deliver(event Event, match func(*Client) bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if !match(client) {
			continue
		}
		select {
		case client.Events <- event:
		default:
			h.logger.Warn("sse client buffer full, dropping event",
				zap.String("client_id", client.ID),
				zap.String("event", event.EventType))
		}
	}
}

func (h *Hub) encode(eventType string, payload interface{}) (Event, bool) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("sse encode event", zap.String("event", eventType), zap.Error(err))
		return Event{}, false
	}
	return Event{EventType: eventType, Data: string(data)}, true
}

// HarnessUpdate harness_update payload
type HarnessUpdate struct {
	HarnessID string `json:"harnessId"`
	Status    string `json:"status"`
	Action    string `json:"action"`
}

// PublishHarnessUpdate notifies every client that may see the harness.
// Vendor streams only receive updates for harnesses assigned to them.
func (h *Hub) PublishHarnessUpdate(update HarnessUpdate, vendorIDs []string) {
	event, ok := h.encode(EventHarnessUpdate, update)
	if !ok {
		return
	}
	h.deliver(event, visibleTo(vendorIDs))
}

// ShipmentUpdate shipment_update payload
type ShipmentUpdate struct {
	ShipmentID string `json:"shipmentId"`
	HarnessID  string `json:"harnessId"`
	Status     string `json:"status"`
	Action     string `json:"action"`
}

// PublishShipmentUpdate notifies admins and the dispatching vendor
func (h *Hub) PublishShipmentUpdate(update ShipmentUpdate, vendorID string) {
	event, ok := h.encode(EventShipmentUpdate, update)
	if !ok {
		return
	}
	h.deliver(event, visibleTo([]string{vendorID}))
}

// ReportUpdate report_update payload
type ReportUpdate struct {
	ReportID  string `json:"reportId"`
	HarnessID string `json:"harnessId"`
	Type      string `json:"type"`
}

// PublishReportUpdate notifies every client that may see the harness
func (h *Hub) PublishReportUpdate(update ReportUpdate, vendorIDs []string) {
	event, ok := h.encode(EventReportUpdate, update)
	if !ok {
		return
	}
	h.deliver(event, visibleTo(vendorIDs))
}

// SessionExpired session_expired payload
type SessionExpired struct {
	Reason string `json:"reason"`
}

// PublishSessionExpired tells all streams of a user to drop the session
func (h *Hub) PublishSessionExpired(userID, reason string) {
	event, ok := h.encode(EventSessionExpired, SessionExpired{Reason: reason})
	if !ok {
		return
	}
	h.SendToUser(userID, event)
}

const roleVendor = "VENDOR"

func visibleTo(vendorIDs []string) func(*Client) bool {
	return func(c *Client) bool {
		if c.Role != roleVendor {
			return true
		}
		for _, id := range vendorIDs {
			if id == c.UserID {
				return true
			}
		}
		return false
	}
}
