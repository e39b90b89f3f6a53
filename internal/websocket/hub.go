// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tagwatch/internal/logging"
	"github.com/tomtom215/tagwatch/internal/metrics"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types for WebSocket communication
const (
	MessageTypePing            = "ping"
	MessageTypePong            = "pong"
	MessageTypeSnapshot        = "snapshot"
	MessageTypeMapOps          = "map_ops"
	MessageTypeTriggerEvent    = "trigger_event"
	MessageTypeSystemEvent     = "system_event"
	MessageTypeConnectionState = "connection_state"
	MessageTypeZoneMismatch    = "zone_mismatch"
	MessageTypeHighlight       = "highlight"
	MessageTypeMapKey          = "map_key"
)

// Message is an outbound WebSocket message
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Inbound is a message received from a browser. Data is decoded by the
// handler for its type.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// InboundHandler handles client messages other than ping.
type InboundHandler func(clientID uint64, msg Inbound)

// SnapshotFunc builds the messages sent to a client when it registers.
type SnapshotFunc func() []Message

// Hub maintains the set of active clients and broadcasts messages to the clients
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	done       chan struct{}
	doneOnce   sync.Once
	mu         sync.RWMutex

	hookMu   sync.RWMutex
	inbound  InboundHandler
	snapshot SnapshotFunc
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
	}
}

// OnMessage sets the handler for inbound client messages.
func (h *Hub) OnMessage(fn InboundHandler) {
	h.hookMu.Lock()
	h.inbound = fn
	h.hookMu.Unlock()
}

// OnRegister sets the snapshot sent to newly registered clients.
func (h *Hub) OnRegister(fn SnapshotFunc) {
	h.hookMu.Lock()
	h.snapshot = fn
	h.hookMu.Unlock()
}

// Serve runs the hub until ctx is cancelled. It implements suture.Service.
//
// Selection is priority based: shutdown first, then client lifecycle, then
// broadcasts, so client state is consistent before a message goes out.
func (h *Hub) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.register(client)
			continue
		case client := <-h.Unregister:
			h.unregister(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.register(client)
		case client := <-h.Unregister:
			h.unregister(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

// String implements fmt.Stringer for supervisor logs.
func (h *Hub) String() string { return "websocket-hub" }

func (h *Hub) register(client *Client) {
	h.hookMu.RLock()
	snapshot := h.snapshot
	h.hookMu.RUnlock()

	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(total))
	logging.Info().Uint64("client_id", client.id).Int("total_clients", total).Msg("websocket client connected")

	if snapshot == nil {
		return
	}
	for _, msg := range snapshot() {
		h.sendTo(client, msg)
	}
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(total))
	logging.Info().Uint64("client_id", client.id).Int("total_clients", total).Msg("websocket client disconnected")
}

// sendTo queues msg for one client. A full queue drops the client.
func (h *Hub) sendTo(client *Client, msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.clients[client] {
		return
	}
	select {
	case client.send <- msg:
	default:
		close(client.send)
		delete(h.clients, client)
	}
}

func (h *Hub) dispatch(client *Client, msg Inbound) {
	h.hookMu.RLock()
	fn := h.inbound
	h.hookMu.RUnlock()
	if fn == nil {
		return
	}
	fn(client.id, msg)
}

// logGracefulShutdown closes every client and logs the shutdown.
// ctx.Err() is not logged as an error; cancellation is the normal path.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.GetClientCount()
	h.closeAllClients()
	h.doneOnce.Do(func() { close(h.done) })

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	if ctx.Err() == context.DeadlineExceeded {
		return ShutdownReasonContextDeadline
	}
	return ShutdownReasonContextCanceled
}

// sortedClientsLocked returns the clients in ID order.
func (h *Hub) sortedClientsLocked() []*Client {
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	return clients
}

// broadcastToClients sends a message to all connected clients in ID order.
// Clients whose queue is full are removed.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	var toRemove []*Client
	for _, client := range h.sortedClientsLocked() {
		select {
		case client.send <- message:
		default:
			toRemove = append(toRemove, client)
		}
	}
	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
	}
	total := len(h.clients)
	h.mu.Unlock()

	if len(toRemove) > 0 {
		metrics.WSConnections.Set(float64(total))
		logging.Warn().Int("dropped", len(toRemove)).Msg("dropped slow websocket clients")
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, client := range h.sortedClientsLocked() {
		close(client.send)
		delete(h.clients, client)
	}
	metrics.WSConnections.Set(0)
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastJSON queues a message for every client. It never blocks; when the
// broadcast queue is full the message is dropped.
func (h *Hub) BroadcastJSON(messageType string, data interface{}) {
	select {
	case h.broadcast <- Message{Type: messageType, Data: data}:
	default:
		logging.Warn().Str("message_type", messageType).Msg("broadcast channel full, dropping message")
	}
}

// ConnectionStateData is sent with connection_state.
type ConnectionStateData struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Connected bool   `json:"connected"`
}

// ZoneMismatchData is sent with zone_mismatch.
type ZoneMismatchData struct {
	TagID        string `json:"tag_id"`
	ReportedZone int    `json:"reported_zone"`
	SelectedZone int    `json:"selected_zone"`
	Message      string `json:"message"`
}

// HighlightData is sent with highlight.
type HighlightData struct {
	TriggerID int `json:"trigger_id"`
}

// SystemEventData is sent with system_event.
type SystemEventData struct {
	Text string `json:"text"`
}

// BroadcastMapOps forwards layer operations.
func (h *Hub) BroadcastMapOps(ops interface{}) {
	h.BroadcastJSON(MessageTypeMapOps, ops)
}

// BroadcastTriggerEvent forwards one trigger event.
func (h *Hub) BroadcastTriggerEvent(event interface{}) {
	h.BroadcastJSON(MessageTypeTriggerEvent, event)
}

// BroadcastSystemEvent forwards one system log line.
func (h *Hub) BroadcastSystemEvent(text string) {
	h.BroadcastJSON(MessageTypeSystemEvent, SystemEventData{Text: text})
}

// BroadcastConnectionState forwards a session state change.
func (h *Hub) BroadcastConnectionState(from, to string, connected bool) {
	h.BroadcastJSON(MessageTypeConnectionState, ConnectionStateData{From: from, To: to, Connected: connected})
}

// BroadcastZoneMismatch asks operators whether to switch zones.
func (h *Hub) BroadcastZoneMismatch(data ZoneMismatchData) {
	h.BroadcastJSON(MessageTypeZoneMismatch, data)
}

// BroadcastHighlight sets or clears (0) the highlighted trigger.
func (h *Hub) BroadcastHighlight(triggerID int) {
	h.BroadcastJSON(MessageTypeHighlight, HighlightData{TriggerID: triggerID})
}

// MarshalMessage converts a message to JSON
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
