package broadcast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe("following-changed")

	bus.Publish("following-changed", "Maya Chen")

	select {
	case payload := <-sub:
		assert.Equal(t, "Maya Chen", payload)
	default:
		require.Fail(t, "expected a buffered event")
	}
}

func TestBus_publishWithoutSubscribersDoesNotBlock(t *testing.T) {
	bus := NewBus()
	bus.Publish("nobody-listens", "payload")
}

func TestBus_fullSubscriberIsSkipped(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe("topic")

	// overflow the buffer; publish must not block
	for i := 0; i < 100; i++ {
		bus.Publish("topic", "event")
	}
	assert.Equal(t, 16, len(sub))
}
