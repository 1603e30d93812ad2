package notifications_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bazaar/internal/notifications"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func fcmServer(t *testing.T, status int, body string, seen *map[string]interface{}) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer server-key", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		if seen != nil {
			_ = json.Unmarshal(raw, seen)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func samplePush() notifications.PushMessage {
	return notifications.PushMessage{
		UserID: "seller-1",
		Token:  "device-abc",
		Title:  "New Order Received!",
		Body:   "Order #ORD1 - ₹100.00",
		Data:   map[string]string{"type": "order_placed"},
	}
}

func TestFCMGateway_Success(t *testing.T) {
	var seen map[string]interface{}
	srv := fcmServer(t, http.StatusOK, `{"name":"projects/p/messages/1"}`, &seen)
	gw := notifications.NewFCMGateway(srv.URL, "server-key", time.Second)

	require.NoError(t, gw.Send(context.Background(), samplePush()))

	message := seen["message"].(map[string]interface{})
	assert.Equal(t, "device-abc", message["token"])
	android := message["android"].(map[string]interface{})
	assert.Equal(t, "high", android["priority"])
}

func TestFCMGateway_Unregistered(t *testing.T) {
	body := `{"error":{"status":"NOT_FOUND","message":"Requested entity was not found.","details":[{"errorCode":"UNREGISTERED"}]}}`
	srv := fcmServer(t, http.StatusNotFound, body, nil)
	gw := notifications.NewFCMGateway(srv.URL, "server-key", time.Second)

	err := gw.Send(context.Background(), samplePush())
	assert.True(t, errors.Is(err, notifications.ErrUnregisteredToken))
}

func TestFCMGateway_ServerError(t *testing.T) {
	srv := fcmServer(t, http.StatusInternalServerError, `{"error":{"status":"INTERNAL"}}`, nil)
	gw := notifications.NewFCMGateway(srv.URL, "server-key", time.Second)

	err := gw.Send(context.Background(), samplePush())
	require.Error(t, err)
	assert.False(t, errors.Is(err, notifications.ErrUnregisteredToken))
	assert.Contains(t, err.Error(), "500")
}

func TestFCMGateway_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	gw := notifications.NewFCMGateway(url, "server-key", 200*time.Millisecond)
	err := gw.Send(context.Background(), samplePush())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")
}

type recordingPublisher struct {
	queue   string
	payload interface{}
	err     error
}

func (p *recordingPublisher) Publish(ctx context.Context, queue string, payload interface{}) error {
	p.queue = queue
	p.payload = payload
	return p.err
}

func TestQueueGateway_Publishes(t *testing.T) {
	pub := &recordingPublisher{}
	gw := notifications.NewQueueGateway(pub, "push_notifications")

	require.NoError(t, gw.Send(context.Background(), samplePush()))
	assert.Equal(t, "push_notifications", pub.queue)
	assert.Equal(t, samplePush(), pub.payload)

	pub.err = errors.New("channel closed")
	assert.Error(t, gw.Send(context.Background(), samplePush()))
}

func TestRelay_Handle(t *testing.T) {
	body, err := json.Marshal(samplePush())
	require.NoError(t, err)

	delivered := &recordingGateway{}
	relay := notifications.NewRelay(delivered, nil)
	require.NoError(t, relay.Handle(context.Background(), body))
	assert.Len(t, delivered.messages(), 1)

	assert.NoError(t, relay.Handle(context.Background(), []byte("{not json")))

	failing := notifications.NewRelay(&recordingGateway{err: errors.New("timeout")}, nil)
	assert.Error(t, failing.Handle(context.Background(), body))

	tokens := new(MockTokenRegistry)
	tokens.On("ForgetDeviceToken", mock.Anything, "seller-1", "device-abc").Return(nil).Once()
	dead := notifications.NewRelay(&recordingGateway{err: notifications.ErrUnregisteredToken}, tokens)
	assert.NoError(t, dead.Handle(context.Background(), body))
	tokens.AssertExpectations(t)
}
