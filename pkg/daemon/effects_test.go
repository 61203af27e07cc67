package daemon

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDelayerRuns(t *testing.T) {
	d := newDelayer()
	defer d.Stop()

	done := make(chan struct{})
	d.After("a", time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("callback did not run")
	}
	assert.Eventually(t, func() bool { return d.Pending() == 0 }, time.Second, time.Millisecond)
}

func TestDelayerSupersedesSameKey(t *testing.T) {
	d := newDelayer()
	defer d.Stop()

	var first, second atomic.Int32
	d.After("display", 50*time.Millisecond, func() { first.Add(1) })
	d.After("display", 50*time.Millisecond, func() { second.Add(1) })
	assert.Equal(t, 1, d.Pending())

	assert.Eventually(t, func() bool { return second.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), first.Load())
}

func TestDelayerKeysAreIndependent(t *testing.T) {
	d := newDelayer()
	defer d.Stop()

	var n atomic.Int32
	d.After("key:1", 10*time.Millisecond, func() { n.Add(1) })
	d.After("key:2", 10*time.Millisecond, func() { n.Add(1) })

	assert.Eventually(t, func() bool { return n.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestDelayerStop(t *testing.T) {
	d := newDelayer()

	var n atomic.Int32
	d.After("display", 20*time.Millisecond, func() { n.Add(1) })
	d.Stop()
	assert.Equal(t, 0, d.Pending())

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), n.Load())
}

func TestDelayerCancel(t *testing.T) {
	d := newDelayer()
	defer d.Stop()

	var canceled, kept atomic.Int32
	d.After("display", 20*time.Millisecond, func() { canceled.Add(1) })
	d.After("key:1", 20*time.Millisecond, func() { kept.Add(1) })
	d.Cancel("display")
	d.Cancel("missing")
	assert.Equal(t, 1, d.Pending())

	assert.Eventually(t, func() bool { return kept.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(0), canceled.Load())
}
