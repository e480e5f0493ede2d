package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishQueuesMarshalledPayload(t *testing.T) {
	hub := NewHub(zerolog.Nop())

	hub.Publish(map[string]interface{}{"type": EventStockUpdate, "count": 2})

	select {
	case msg := <-hub.Broadcast:
		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(msg, &decoded))
		assert.Equal(t, EventStockUpdate, decoded["type"])
		assert.EqualValues(t, 2, decoded["count"])
	case <-time.After(time.Second):
		t.Fatal("payload was not queued")
	}
}

func TestPublishOnNilHubIsNoop(t *testing.T) {
	var hub *Hub
	assert.NotPanics(t, func() {
		hub.Publish(map[string]interface{}{"type": EventStockUpdate})
	})
}

func TestClientCountStartsEmpty(t *testing.T) {
	assert.Equal(t, 0, NewHub(zerolog.Nop()).ClientCount())
}

func TestPublishKeepsOrderAndDropsOnFullQueue(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	capacity := cap(hub.Broadcast)

	for i := 0; i < capacity+5; i++ {
		hub.Publish(map[string]interface{}{"type": EventStockUpdate, "seq": i})
	}
	require.Len(t, hub.Broadcast, capacity)

	for i := 0; i < capacity; i++ {
		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(<-hub.Broadcast, &decoded))
		assert.EqualValues(t, i, decoded["seq"])
	}
	assert.Empty(t, hub.Broadcast)
}
