package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
)

// Publisher puts a JSON payload on a named queue.
type Publisher interface {
	Publish(ctx context.Context, queue string, payload interface{}) error
}

// QueueGateway hands push messages to a broker so that delivery happens out
// of process, in a Relay.
type QueueGateway struct {
	publisher Publisher
	queue     string
}

// NewQueueGateway creates a gateway that publishes to queue.
func NewQueueGateway(publisher Publisher, queue string) *QueueGateway {
	return &QueueGateway{publisher: publisher, queue: queue}
}

func (g *QueueGateway) Send(ctx context.Context, msg PushMessage) error {
	if err := g.publisher.Publish(ctx, g.queue, msg); err != nil {
		return fmt.Errorf("failed to enqueue push for user %s: %w", msg.UserID, err)
	}
	return nil
}

// Relay consumes queued push messages and forwards them to a delivering gateway.
type Relay struct {
	gateway Gateway
	tokens  TokenRegistry
}

// NewRelay creates a relay. tokens may be nil, in which case unregistered
// tokens are only logged.
func NewRelay(gateway Gateway, tokens TokenRegistry) *Relay {
	return &Relay{gateway: gateway, tokens: tokens}
}

// Handle delivers one queued message. Malformed messages and dead tokens are
// acknowledged; only transient gateway failures are returned for redelivery.
func (r *Relay) Handle(ctx context.Context, body []byte) error {
	var msg PushMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		log.Printf("Dropping malformed push message: %v", err)
		return nil
	}
	if msg.Token == "" {
		return nil
	}

	err := r.gateway.Send(ctx, msg)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrUnregisteredToken):
		log.Printf("Warning: device token for user %s is unregistered", msg.UserID)
		if r.tokens != nil {
			if ferr := r.tokens.ForgetDeviceToken(ctx, msg.UserID, msg.Token); ferr != nil {
				log.Printf("Failed to clear device token for user %s: %v", msg.UserID, ferr)
			}
		}
		return nil
	default:
		return err
	}
}
