package stream

import (
	"context"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/rahulyhg/trackbook/internal/logger"
)

// Hub fans waypoint events out to the live subscribers of a device. With a
// Redis client the events travel through pub/sub so every instance sees them.
type Hub struct {
	redis   *redis.Client
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
	cancel  context.CancelFunc
	ready   chan struct{}
}

type Client struct {
	DeviceID string
	Send     chan []byte
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		redis:   redisClient,
		clients: map[string]map[*Client]struct{}{},
		ready:   make(chan struct{}),
	}

	if redisClient != nil {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancel = cancel
		go h.subscribeRedis(ctx)
	} else {
		close(h.ready)
	}
	return h
}

// Ready is closed once the hub is able to receive events.
func (h *Hub) Ready() <-chan struct{} {
	return h.ready
}

func (h *Hub) Register(deviceID string) *Client {
	client := &Client{
		DeviceID: deviceID,
		Send:     make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[deviceID] == nil {
		h.clients[deviceID] = map[*Client]struct{}{}
	}
	h.clients[deviceID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	deviceClients, ok := h.clients[client.DeviceID]
	if !ok {
		return
	}
	if _, ok := deviceClients[client]; !ok {
		return
	}
	delete(deviceClients, client)
	if len(deviceClients) == 0 {
		delete(h.clients, client.DeviceID)
	}
	close(client.Send)
}

func (h *Hub) Subscribers(deviceID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[deviceID])
}

// Broadcast delivers payload to the device subscribers. Slow subscribers
// drop messages instead of blocking the recorder.
func (h *Hub) Broadcast(ctx context.Context, deviceID string, payload []byte) {
	if h.redis != nil {
		if err := h.redis.Publish(ctx, redisChannel(deviceID), payload).Err(); err != nil {
			logger.Warn("redis publish failed, delivering locally", logger.String("device", deviceID), logger.ErrorField(err))
			h.deliver(deviceID, payload)
		}
		return
	}
	h.deliver(deviceID, payload)
}

func (h *Hub) deliver(deviceID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[deviceID] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) subscribeRedis(ctx context.Context) {
	pubsub := h.redis.PSubscribe(ctx, channelPrefix+"*"+channelSuffix)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		logger.Error("redis subscribe failed", logger.ErrorField(err))
		close(h.ready)
		return
	}
	close(h.ready)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if deviceID := deviceIDFromChannel(msg.Channel); deviceID != "" {
				h.deliver(deviceID, []byte(msg.Payload))
			}
		}
	}
}

func (h *Hub) Close() {
	if h.cancel != nil {
		h.cancel()
	}
}

const (
	channelPrefix = "recording:"
	channelSuffix = ":waypoints"
)

func redisChannel(deviceID string) string {
	return channelPrefix + deviceID + channelSuffix
}

func deviceIDFromChannel(ch string) string {
	if len(ch) <= len(channelPrefix)+len(channelSuffix) ||
		!strings.HasPrefix(ch, channelPrefix) || !strings.HasSuffix(ch, channelSuffix) {
		return ""
	}
	return ch[len(channelPrefix) : len(ch)-len(channelSuffix)]
}
