package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNilHubPublishIsNoOp(t *testing.T) {
	var h *Hub
	assert.NotPanics(t, func() { h.Publish("RAW: test") })
	assert.Equal(t, 0, h.ClientCount())
}

func TestHubRunStopsOnContextCancel(t *testing.T) {
	h := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after context cancel")
	}
}

func TestHubPublishDoesNotBlockWithoutSubscribers(t *testing.T) {
	h := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			h.Publish("RAW: line")
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked with no subscribers")
	}
}
