package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Channel carries status change fanout to dashboard subscribers.
const Channel = "status:changed"

// Notifier fans a committed transition out to interested listeners.
// Implementations must not block the caller for long; failures are logged
// by the caller and never affect the transition itself.
type Notifier interface {
	StatusChanged(ctx context.Context, jobID, technicianID, status string) error
}

// Event is the published payload.
type Event struct {
	JobID        string    `json:"job_id"`
	TechnicianID string    `json:"technician_id"`
	Status       string    `json:"status"`
	At           time.Time `json:"at"`
}

// RedisNotifier publishes over Redis pub/sub so every API pod sees changes
// made on its peers.
type RedisNotifier struct {
	Client *redis.Client
}

func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{Client: client}
}

func (n *RedisNotifier) StatusChanged(ctx context.Context, jobID, technicianID, status string) error {
	if n.Client == nil {
		return nil
	}
	payload, err := json.Marshal(Event{
		JobID:        jobID,
		TechnicianID: technicianID,
		Status:       status,
		At:           time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return n.Client.Publish(ctx, Channel, payload).Err()
}

// Subscribe delivers decoded events on the returned channel until ctx ends.
func (n *RedisNotifier) Subscribe(ctx context.Context) <-chan Event {
	out := make(chan Event, 16)
	if n.Client == nil {
		close(out)
		return out
	}
	sub := n.Client.Subscribe(ctx, Channel)
	go func() {
		defer close(out)
		defer sub.Close()
		for {
			msg, err := sub.ReceiveMessage(ctx)
			if err != nil {
				return
			}
			var e Event
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				continue
			}
			select {
			case out <- e:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// NopNotifier is used when Redis is unavailable.
type NopNotifier struct{}

func (NopNotifier) StatusChanged(context.Context, string, string, string) error { return nil }
