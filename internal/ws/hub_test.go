package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestPublishQueuesEnvelope(t *testing.T) {
	h := NewHub(nil)

	h.Publish("stock_update", map[string]interface{}{"inventory_id": 7, "new_quantity": 3})

	require.Len(t, h.Broadcast, 1)
	var got struct {
		Type string                 `json:"type"`
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(<-h.Broadcast, &got))
	assert.Equal(t, "stock_update", got.Type)
	assert.EqualValues(t, 7, got.Data["inventory_id"])
	assert.EqualValues(t, 3, got.Data["new_quantity"])
}

func TestPublishDropsWhenQueueFull(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	h := NewHub(zap.New(core))

	for i := 0; i < cap(h.Broadcast)+5; i++ {
		h.Publish("chat_message", i)
	}

	assert.Len(t, h.Broadcast, cap(h.Broadcast))
	assert.Equal(t, 5, logs.FilterMessage("broadcast queue full, event dropped").Len())
}

func TestPublishRejectsUnmarshalablePayload(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	h := NewHub(zap.New(core))

	h.Publish("stock_update", make(chan int))

	assert.Len(t, h.Broadcast, 0)
	assert.Equal(t, 1, logs.Len())
}

func TestStopEndsRun(t *testing.T) {
	h := NewHub(nil)
	finished := make(chan struct{})
	go func() {
		h.Run()
		close(finished)
	}()

	h.Stop()
	<-finished

	h.Remove(nil)
	assert.Zero(t, h.ClientCount())
}
