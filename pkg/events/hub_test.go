package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishSubscribe(t *testing.T) {
	h := NewEventHub()
	a := h.Subscribe()
	b := h.Subscribe()
	require.Equal(t, 2, h.Subscribers())

	h.Publish(DisplayRestore, DisplayEvent{Text: "42"})

	for _, ch := range []chan Event{a, b} {
		ev := <-ch
		assert.Equal(t, DisplayRestore, ev.Name)
		payload, err := DecodeAs[DisplayEvent](ev)
		require.NoError(t, err)
		assert.Equal(t, "42", payload.Text)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	h := NewEventHub()
	ch := h.Subscribe()

	h.Unsubscribe(ch)
	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, h.Subscribers())

	// second unsubscribe is a no-op
	h.Unsubscribe(ch)
}

func TestSlowSubscriberDropsEvents(t *testing.T) {
	h := NewEventHub()
	ch := h.Subscribe()

	for i := 0; i < subscriberBuffer*2; i++ {
		h.Publish(KeyPress, KeyEvent{Key: "1"})
	}
	assert.Len(t, ch, subscriberBuffer)
}

func TestNilHubIsSafe(t *testing.T) {
	var h *EventHub
	h.Publish(UIFocus, FocusEvent{Target: "equals"})
	assert.Equal(t, 0, h.Subscribers())
}

func TestClose(t *testing.T) {
	h := NewEventHub()
	ch := h.Subscribe()
	h.Close()

	_, ok := <-ch
	assert.False(t, ok)
}

func TestDecodeAsEmpty(t *testing.T) {
	payload, err := DecodeAs[KeyEvent](Event{Name: KeyRelease})
	require.NoError(t, err)
	assert.Equal(t, KeyEvent{}, payload)
}
