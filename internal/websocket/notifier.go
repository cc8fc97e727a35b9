package websocket

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"

	"vestia-backend/internal/models"
)

const (
	typeCartUpdated   = "cart_updated"
	typeModelPromoted = "model_promoted"
)

// RedisNotifier publishes session events to redis, where every instance's hub
// picks them up for its connected clients.
type RedisNotifier struct {
	client *redis.Client
}

func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{client: client}
}

func (n *RedisNotifier) CartUpdated(ctx context.Context, sessionID string, snapshot models.CartSnapshot) {
	n.publish(ctx, sessionID, models.WSMessage{
		Type: typeCartUpdated,
		Payload: models.CartUpdate{
			Items:     snapshot.Items,
			Total:     snapshot.Total,
			ItemCount: snapshot.ItemCount,
		},
	})
}

func (n *RedisNotifier) ModelPromoted(ctx context.Context, sessionID, model, displayName string) {
	n.publish(ctx, sessionID, models.WSMessage{
		Type:    typeModelPromoted,
		Payload: models.ModelSwitch{Model: model, DisplayName: displayName},
	})
}

func (n *RedisNotifier) publish(ctx context.Context, sessionID string, msg models.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if err := n.client.Publish(ctx, sessionChannel(sessionID), data).Err(); err != nil {
		log.Printf("websocket: publish to session %s: %v", sessionID, err)
	}
}

// HubNotifier delivers session events straight to the local hub. Used when
// redis is not configured.
type HubNotifier struct {
	hub *Hub
}

func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) CartUpdated(ctx context.Context, sessionID string, snapshot models.CartSnapshot) {
	n.hub.SendToSession(sessionID, models.WSMessage{
		Type: typeCartUpdated,
		Payload: models.CartUpdate{
			Items:     snapshot.Items,
			Total:     snapshot.Total,
			ItemCount: snapshot.ItemCount,
		},
	})
}

func (n *HubNotifier) ModelPromoted(ctx context.Context, sessionID, model, displayName string) {
	n.hub.SendToSession(sessionID, models.WSMessage{
		Type:    typeModelPromoted,
		Payload: models.ModelSwitch{Model: model, DisplayName: displayName},
	})
}
