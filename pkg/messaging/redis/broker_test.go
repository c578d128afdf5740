package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBroker(t *testing.T) *Broker {
	t.Helper()
	mr := miniredis.RunT(t)
	logger := zerolog.Nop()
	broker, err := NewBroker(Config{URL: "redis://" + mr.Addr()}, &logger)
	require.NoError(t, err)
	t.Cleanup(func() { broker.Close() })
	return broker.(*Broker)
}

func TestPublishSubscribeRoundTrip(t *testing.T) {
	broker := newTestBroker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msgs, err := broker.Subscribe(ctx, "order.created")
	require.NoError(t, err)

	payload := map[string]string{"order_id": "abc", "status": "pending"}
	require.NoError(t, broker.Publish(ctx, "order.created", payload))

	select {
	case raw := <-msgs:
		var got map[string]string
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, payload, got)
	case <-ctx.Done():
		t.Fatal("timed out waiting for message")
	}
}

func TestSubscribeStopsOnContextCancel(t *testing.T) {
	broker := newTestBroker(t)

	ctx, cancel := context.WithCancel(context.Background())
	msgs, err := broker.Subscribe(ctx, "order.status_changed")
	require.NoError(t, err)

	cancel()

	select {
	case _, open := <-msgs:
		assert.False(t, open, "channel should be closed after cancel")
	case <-time.After(2 * time.Second):
		t.Fatal("subscription channel was not closed")
	}
}

func TestNewBrokerRejectsBadURL(t *testing.T) {
	logger := zerolog.Nop()
	_, err := NewBroker(Config{URL: "not-a-url"}, &logger)
	assert.Error(t, err)
}
