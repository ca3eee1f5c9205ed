package livefeed

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront/mq"
)

func TestHubRegisterBroadcastUnregister(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()
	defer hub.Stop()

	client := &Client{Send: make(chan []byte, 10)}
	hub.register <- client

	ev := mq.OrderEvent{Key: mq.OrderPlacedKey, OrderID: "o1", Status: "Pending", TotalPrice: 99.5}
	require.NoError(t, hub.Publish(context.Background(), ev))

	select {
	case got := <-client.Send:
		var back mq.OrderEvent
		require.NoError(t, json.Unmarshal(got, &back))
		assert.Equal(t, "o1", back.OrderID)
		assert.Equal(t, 99.5, back.TotalPrice)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	hub.unregister <- client
	_, open := <-client.Send
	assert.False(t, open)
}

func TestPublishAfterStop(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()
	hub.Stop()
	hub.Stop()

	// fill the buffer so Publish has to pick the quit branch
	ctx := context.Background()
	var err error
	for i := 0; i <= sendBuffer; i++ {
		if err = hub.Publish(ctx, mq.OrderEvent{OrderID: "x"}); err != nil {
			break
		}
	}
	assert.ErrorIs(t, err, ErrStopped)
}

func TestWebSocketStreamsEvents(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()
	defer hub.Stop()

	router := httprouter.New()
	router.GET("/live", WebSocketHandler(hub))
	srv := httptest.NewServer(router)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/live", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Connected() == 1 }, time.Second, 10*time.Millisecond)
	hub.Deliver(mq.OrderEvent{Key: mq.OrderStatusKey, OrderID: "o2", Status: "Accepted"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"order_id":"o2"`)
}
