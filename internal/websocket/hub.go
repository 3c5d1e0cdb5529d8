package websocket

import (
	"context"
	"encoding/json"

	"vibez-studio/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ClusterChannel is the redis channel hubs use to reach clients connected to
// other gateway instances.
const ClusterChannel = "cluster_events"

// Message is the frame written to websocket clients.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type clusterPayload struct {
	Origin       string          `json:"origin"`
	TargetUserID string          `json:"target_user_id"`
	Message      json.RawMessage `json:"message"`
}

type Hub struct {
	// Registered clients map: UserID -> List of Clients (multi-device)
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client
	deliver    chan delivery
	done       chan struct{}

	// Redis connection for cross-instance communication. May be nil.
	rdb *redis.Client
	id  string

	logger logger.ILogger
}

// delivery either fans data out to a user's clients or, when count is set,
// reports how many clients the user has.
type delivery struct {
	userID string
	data   []byte
	count  chan int
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		clients:    make(map[string][]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan delivery, 256),
		done:       make(chan struct{}),
		rdb:        rdb,
		id:         uuid.NewString(),
		logger:     log,
	}
}

// Run owns the client map until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) error {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for userID, clients := range h.clients {
				for _, c := range clients {
					close(c.Send)
				}
				delete(h.clients, userID)
			}
			return nil

		case client := <-h.register:
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"user_id": client.UserID})

		case client := <-h.unregister:
			h.remove(client)

		case d := <-h.deliver:
			if d.count != nil {
				d.count <- len(h.clients[d.userID])
				continue
			}
			var slow []*Client
			for _, client := range h.clients[d.userID] {
				select {
				case client.Send <- d.data:
				default:
					slow = append(slow, client)
				}
			}
			// remove edits the slice being ranged over above.
			for _, client := range slow {
				h.logger.Warn("Hub", "Client Send buffer full, dropping client", map[string]interface{}{"user_id": d.userID})
				h.remove(client)
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	clients := h.clients[client.UserID]
	for i, c := range clients {
		if c == client {
			h.clients[client.UserID] = append(clients[:i], clients[i+1:]...)
			close(client.Send)
			break
		}
	}
	if len(h.clients[client.UserID]) == 0 {
		delete(h.clients, client.UserID)
		h.logger.Info("Hub", "Client completely unregistered", map[string]interface{}{"user_id": client.UserID})
	}
}

// Connected reports how many connections userID has on this instance. It
// must not be called from inside Run.
func (h *Hub) Connected(userID string) int {
	reply := make(chan int, 1)
	select {
	case h.deliver <- delivery{userID: userID, count: reply}:
	case <-h.done:
		return 0
	}
	return <-reply
}

// Send delivers a typed message to every connection of userID, here and on
// other instances.
func (h *Hub) Send(ctx context.Context, userID, msgType string, data interface{}) error {
	payload, err := json.Marshal(Message{Type: msgType, Data: data})
	if err != nil {
		return err
	}

	select {
	case h.deliver <- delivery{userID: userID, data: payload}:
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}

	if h.rdb != nil {
		msg, _ := json.Marshal(clusterPayload{Origin: h.id, TargetUserID: userID, Message: payload})
		if err := h.rdb.Publish(ctx, ClusterChannel, msg).Err(); err != nil {
			h.logger.Warn("Hub", "Failed to publish to cluster", map[string]interface{}{"error": err.Error()})
		}
	}
	return nil
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, ClusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var payload clusterPayload
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				h.logger.Warn("Hub", "Cluster message parse error", map[string]interface{}{"error": err.Error()})
				continue
			}
			if payload.Origin == h.id {
				continue
			}
			select {
			case h.deliver <- delivery{userID: payload.TargetUserID, data: payload.Message}:
			case <-ctx.Done():
				return
			}
		}
	}
}
