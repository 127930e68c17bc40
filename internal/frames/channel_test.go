package frames

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	got []Message
}

func (r *recordingSink) PostMessage(m Message) { r.got = append(r.got, m) }

func TestChannelDeliver(t *testing.T) {
	ch := NewChannel()
	var got []Message
	sub := ch.Subscribe(func(m Message) { got = append(got, m) })
	defer sub.Close()

	assert.True(t, ch.Deliver([]byte(`{"type":"height-report","page":1,"height":300}`)))
	assert.True(t, ch.Deliver([]byte(`{"type":"image-click","images":["a"],"index":0}`)))
	assert.False(t, ch.Deliver([]byte(`{"source":"react-devtools"}`)))
	assert.False(t, ch.Deliver([]byte(`{"type":"theme-change","isDark":true}`)), "theme changes are outbound only")

	require.Len(t, got, 2)
	assert.Equal(t, HeightReport{Page: 1, Height: 300}, got[0])
	assert.Equal(t, 2, ch.Dropped())
}

func TestChannelSubscriptionClose(t *testing.T) {
	ch := NewChannel()
	var n int
	sub := ch.Subscribe(func(Message) { n++ })

	ch.Dispatch(HeightReport{Page: 1, Height: 1})
	sub.Close()
	sub.Close()
	ch.Dispatch(HeightReport{Page: 1, Height: 2})

	assert.Equal(t, 1, n)
}

func TestChannelCloseIsTerminal(t *testing.T) {
	ch := NewChannel()
	var n int
	ch.Subscribe(func(Message) { n++ })
	sink := &recordingSink{}
	ch.Attach(sink)

	ch.Close()

	assert.False(t, ch.Dispatch(HeightReport{Page: 1, Height: 1}))
	assert.Zero(t, ch.Broadcast(ThemeChange{IsDark: true}))
	assert.Zero(t, n)
	assert.Empty(t, sink.got)

	// Registrations after close are inert but safe to release.
	late := ch.Subscribe(func(Message) { n++ })
	late.Close()
}

func TestChannelBroadcast(t *testing.T) {
	ch := NewChannel()
	a, b := &recordingSink{}, &recordingSink{}
	ch.Attach(a)
	subB := ch.Attach(b)

	assert.Equal(t, 2, ch.Broadcast(ThemeChange{IsDark: true}))
	subB.Close()
	assert.Equal(t, 1, ch.Broadcast(ThemeChange{IsDark: false}))

	assert.Equal(t, []Message{ThemeChange{IsDark: true}, ThemeChange{IsDark: false}}, a.got)
	assert.Equal(t, []Message{ThemeChange{IsDark: true}}, b.got)
}

func TestManualObserver(t *testing.T) {
	var o ManualObserver
	assert.False(t, o.Fire())

	var n int
	o.Start("#sentinel", func() { n++ })
	assert.Equal(t, "#sentinel", o.Target())
	assert.True(t, o.Fire())
	o.Stop()
	assert.False(t, o.Fire())
	assert.False(t, o.Active())
	assert.Equal(t, 1, n)
}

func TestTimerObserverStopPreventsFire(t *testing.T) {
	var fired atomic.Bool
	o := &TimerObserver{Delay: 20 * time.Millisecond}
	o.Start("ad-slot", func() { fired.Store(true) })
	o.Stop()

	time.Sleep(60 * time.Millisecond)
	assert.False(t, fired.Load())
}

func TestTimerObserverFires(t *testing.T) {
	done := make(chan struct{})
	o := &TimerObserver{Delay: 5 * time.Millisecond}
	o.Start("ad-slot", func() { close(done) })
	defer o.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer observer never fired")
	}
}
