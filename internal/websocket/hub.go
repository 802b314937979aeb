package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/kapehan/cafe-pos/internal/metrics"
	"github.com/kapehan/cafe-pos/pkg/logger"
)

// TopicDashboard carries sales and stock events for the back-office screen.
const TopicDashboard = "dashboard"

const (
	EventOrderPlaced = "order_placed"
	EventOrderVoided = "order_voided"
	EventStockAlert  = "stock_alert"
	EventMenuChanged = "menu_changed"
)

// Event is the JSON frame every subscriber receives.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
	At      time.Time   `json:"at"`
}

// Client is one websocket connection subscribed to a single topic.
type Client struct {
	Hub    *Hub
	Conn   *Conn
	UserID uint
	Topic  string
	Send   chan []byte

	rateMu        sync.Mutex
	messageCount  int
	lastResetTime time.Time
}

func NewClient(hub *Hub, conn *Conn, userID uint, topic string) *Client {
	return &Client{
		Hub:           hub,
		Conn:          conn,
		UserID:        userID,
		Topic:         topic,
		Send:          make(chan []byte, sendBufferSize),
		lastResetTime: time.Now(),
	}
}

type broadcastMessage struct {
	topic string
	data  []byte
}

// Hub fans events out to the clients of each topic. All membership changes
// go through Run's goroutine.
type Hub struct {
	topics     map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcastMessage

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		topics:     make(map[string]map[*Client]bool),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		broadcast:  make(chan broadcastMessage, 1024),
	}
}

// Run processes hub traffic until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.topics[client.Topic] == nil {
				h.topics[client.Topic] = make(map[*Client]bool)
			}
			h.topics[client.Topic][client] = true
			count := len(h.topics[client.Topic])
			h.mu.Unlock()
			metrics.LiveSubscribers.Inc()
			logger.Info("WebSocket client registered", map[string]interface{}{
				"user_id":     client.UserID,
				"topic":       client.Topic,
				"subscribers": count,
			})

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.broadcast:
			h.mu.RLock()
			var slow []*Client
			for client := range h.topics[msg.topic] {
				select {
				case client.Send <- msg.data:
				default:
					slow = append(slow, client)
				}
			}
			h.mu.RUnlock()
			for _, client := range slow {
				logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
					"user_id": client.UserID,
				})
				h.remove(client)
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.topics[client.Topic]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.topics, client.Topic)
	}
	close(client.Send)
	metrics.LiveSubscribers.Dec()
	logger.Info("WebSocket client unregistered", map[string]interface{}{
		"user_id": client.UserID,
		"topic":   client.Topic,
	})
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for topic, clients := range h.topics {
		for client := range clients {
			close(client.Send)
			metrics.LiveSubscribers.Dec()
		}
		delete(h.topics, topic)
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Publish sends an event to every subscriber of topic. Events are dropped
// when the hub is saturated; publishers never block on slow dashboards.
func (h *Hub) Publish(topic, eventType string, payload interface{}) {
	data, err := json.Marshal(Event{Type: eventType, Payload: payload, At: time.Now().UTC()})
	if err != nil {
		logger.Error("Failed to marshal event", err, map[string]interface{}{
			"type": eventType,
		})
		return
	}

	select {
	case h.broadcast <- broadcastMessage{topic: topic, data: data}:
	default:
		logger.Warn("Broadcast channel full, event dropped", map[string]interface{}{
			"topic": topic,
			"type":  eventType,
		})
	}
}

// Subscribers returns the number of clients on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Topic binds the hub to one topic.
func (h *Hub) Topic(topic string) *TopicPublisher {
	return &TopicPublisher{hub: h, topic: topic}
}

// TopicPublisher publishes to a fixed topic.
type TopicPublisher struct {
	hub   *Hub
	topic string
}

func (p *TopicPublisher) Publish(eventType string, payload interface{}) {
	p.hub.Publish(p.topic, eventType, payload)
}

// allow applies the per-client inbound rate limit.
func (c *Client) allow() bool {
	c.rateMu.Lock()
	defer c.rateMu.Unlock()

	now := time.Now()
	if now.Sub(c.lastResetTime) >= time.Second {
		c.messageCount = 0
		c.lastResetTime = now
	}
	c.messageCount++
	return c.messageCount <= maxMessagesPerSecond
}
