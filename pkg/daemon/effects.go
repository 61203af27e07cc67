package daemon

import (
	"sync"
	"time"

	"github.com/charlie0129/calc/pkg/engine"
	"github.com/charlie0129/calc/pkg/events"
)

// delayer runs fire-and-forget callbacks after a delay. Scheduling a key
// again replaces the pending callback for that key.
type delayer struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func newDelayer() *delayer {
	return &delayer{timers: make(map[string]*time.Timer)}
}

func (d *delayer) After(key string, delay time.Duration, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if old, ok := d.timers[key]; ok {
		old.Stop()
	}

	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		d.mu.Lock()
		if d.timers[key] != t {
			// superseded after it already fired
			d.mu.Unlock()
			return
		}
		delete(d.timers, key)
		d.mu.Unlock()

		fn()
	})
	d.timers[key] = t
}

// Cancel drops the pending callback for key, if any.
func (d *delayer) Cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.timers[key]; ok {
		t.Stop()
		delete(d.timers, key)
	}
}

// Pending returns the number of callbacks that have not run yet.
func (d *delayer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.timers)
}

// Stop drops all pending callbacks.
func (d *delayer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, t := range d.timers {
		t.Stop()
		delete(d.timers, key)
	}
}

const (
	blinkKey     = "display"
	keyKeyPrefix = "key:"
)

// onEffect turns engine effects into events for the widget. It runs while
// the engine lock is held and must not touch the engine.
func (s *Server) onEffect(ef engine.Effect) {
	switch ef.Kind {
	case engine.EffectFocusEquals:
		s.hub.Publish(events.UIFocus, events.FocusEvent{Target: "equals"})
	case engine.EffectHighlightOperation:
		s.hub.Publish(events.OperationHighlight, events.OperationEvent{
			Operation: string(ef.Operation),
			Symbol:    ef.Operation.Symbol(),
		})
	case engine.EffectReleaseOperation:
		s.hub.Publish(events.OperationRelease, events.OperationEvent{})
	case engine.EffectBlink:
		text := ef.Text
		s.blinkText = &text
	}
}

// blink blanks the display and restores text after the blink delay, unless
// a newer state is published first. Callers hold s.mu.
func (s *Server) blink(text string) {
	gen := s.displayGen
	s.hub.Publish(events.DisplayBlink, events.DisplayEvent{})
	s.delays.After(blinkKey, s.conf.BlinkDelay(), func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.displayGen != gen {
			return
		}
		s.hub.Publish(events.DisplayRestore, events.DisplayEvent{Text: text})
	})
}

// flashKey highlights the button for key and releases it after the blink
// delay.
func (s *Server) flashKey(key string) {
	s.hub.Publish(events.KeyPress, events.KeyEvent{Key: key})
	s.delays.After(keyKeyPrefix+key, s.conf.BlinkDelay(), func() {
		s.hub.Publish(events.KeyRelease, events.KeyEvent{Key: key})
	})
}
