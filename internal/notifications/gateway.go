package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// ErrUnregisteredToken is returned by a Gateway when the device token is no
// longer valid. The dispatcher clears such tokens.
var ErrUnregisteredToken = errors.New("device token is unregistered")

// Gateway delivers a push message to a device.
type Gateway interface {
	Send(ctx context.Context, msg PushMessage) error
}

// LogGateway only logs messages. It is used when no push provider is configured.
type LogGateway struct{}

func (LogGateway) Send(ctx context.Context, msg PushMessage) error {
	log.Printf("Push to user %s: %s - %s %v", msg.UserID, msg.Title, msg.Body, msg.Data)
	return nil
}

// FCMGateway posts messages to a Firebase Cloud Messaging compatible HTTP endpoint.
type FCMGateway struct {
	endpoint  string
	serverKey string
	timeout   time.Duration
}

// NewFCMGateway creates a gateway that posts to endpoint, authenticating with
// serverKey as a bearer token.
func NewFCMGateway(endpoint, serverKey string, timeout time.Duration) *FCMGateway {
	return &FCMGateway{endpoint: endpoint, serverKey: serverKey, timeout: timeout}
}

type fcmAndroidNotification struct {
	Sound     string `json:"sound"`
	ChannelID string `json:"channel_id"`
}

type fcmAndroid struct {
	Priority     string                 `json:"priority"`
	Notification fcmAndroidNotification `json:"notification"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmMessage struct {
	Token        string            `json:"token"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
	Android      fcmAndroid        `json:"android"`
}

type fcmRequest struct {
	Message fcmMessage `json:"message"`
}

type fcmError struct {
	Error struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Details []struct {
			ErrorCode string `json:"errorCode"`
		} `json:"details"`
	} `json:"error"`
}

func (e fcmError) unregistered() bool {
	if e.Error.Status == "NOT_FOUND" {
		return true
	}
	for _, d := range e.Error.Details {
		if d.ErrorCode == "UNREGISTERED" {
			return true
		}
	}
	return false
}

// Send posts msg and classifies the response.
func (g *FCMGateway) Send(ctx context.Context, msg PushMessage) error {
	payload := fcmRequest{Message: fcmMessage{
		Token:        msg.Token,
		Notification: fcmNotification{Title: msg.Title, Body: msg.Body},
		Data:         msg.Data,
		Android:      fcmAndroidDefaults(),
	}}

	timeout := g.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout || timeout <= 0 {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return fmt.Errorf("push gateway: %w", context.DeadlineExceeded)
	}

	agent := fiber.Post(g.endpoint)
	agent.Set(fiber.HeaderAuthorization, "Bearer "+g.serverKey)
	agent.JSON(payload)
	agent.Timeout(timeout)
	if err := agent.Parse(); err != nil {
		return fmt.Errorf("push gateway request: %w", err)
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("push gateway unreachable: %w", errs[0])
	}
	if code >= 200 && code < 300 {
		return nil
	}

	var gwErr fcmError
	if json.Unmarshal(body, &gwErr) == nil && gwErr.unregistered() {
		return ErrUnregisteredToken
	}
	if code == fiber.StatusNotFound || strings.Contains(string(body), "UNREGISTERED") {
		return ErrUnregisteredToken
	}
	return fmt.Errorf("push gateway returned %d: %s", code, strings.TrimSpace(string(body)))
}

func fcmAndroidDefaults() fcmAndroid {
	return fcmAndroid{
		Priority: "high",
		Notification: fcmAndroidNotification{
			Sound:     "default",
			ChannelID: "order_notifications",
		},
	}
}
