package frames

import (
	"sync"
)

// Handler receives inbound messages accepted by a Channel.
type Handler func(Message)

// FrameSink is the host's handle on one embedded frame's window.
type FrameSink interface {
	PostMessage(Message)
}

// Subscription is an owned registration. Close releases it; calling Close
// more than once is harmless.
type Subscription struct {
	once    sync.Once
	release func()
}

// Close releases the registration.
func (s *Subscription) Close() {
	if s == nil {
		return
	}
	s.once.Do(s.release)
}

// Channel routes messages between one host document and its frames.
// Inbound messages (frame to host) are height reports and image clicks;
// the only outbound message is a theme change. The zero value is not usable.
type Channel struct {
	mu       sync.Mutex
	closed   bool
	nextID   uint64
	handlers map[uint64]Handler
	sinks    map[uint64]FrameSink
	dropped  int
}

// NewChannel creates a channel for a single host document lifetime.
func NewChannel() *Channel {
	return &Channel{
		handlers: make(map[uint64]Handler),
		sinks:    make(map[uint64]FrameSink),
	}
}

// Subscribe registers h for inbound messages. The returned subscription must
// be closed when the owning view is torn down.
func (c *Channel) Subscribe(h Handler) *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return &Subscription{release: func() {}}
	}
	id := c.nextID
	c.nextID++
	c.handlers[id] = h
	return &Subscription{release: func() {
		c.mu.Lock()
		delete(c.handlers, id)
		c.mu.Unlock()
	}}
}

// Attach registers a frame window to receive outbound messages.
func (c *Channel) Attach(sink FrameSink) *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return &Subscription{release: func() {}}
	}
	id := c.nextID
	c.nextID++
	c.sinks[id] = sink
	return &Subscription{release: func() {
		c.mu.Lock()
		delete(c.sinks, id)
		c.mu.Unlock()
	}}
}

// Deliver decodes a raw inbound payload and dispatches it. It reports
// whether the payload was accepted; rejected payloads are counted, not logged.
func (c *Channel) Deliver(raw []byte) bool {
	msg, ok := Decode(raw)
	if !ok {
		c.drop()
		return false
	}
	return c.Dispatch(msg)
}

// Dispatch hands an already decoded inbound message to every handler.
func (c *Channel) Dispatch(msg Message) bool {
	switch msg.(type) {
	case HeightReport, ImageClick:
	default:
		// Theme changes only flow host to frame.
		c.drop()
		return false
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	hs := make([]Handler, 0, len(c.handlers))
	for _, h := range c.handlers {
		hs = append(hs, h)
	}
	c.mu.Unlock()

	for _, h := range hs {
		h(msg)
	}
	return true
}

// Broadcast posts a theme change to every attached frame.
func (c *Channel) Broadcast(msg ThemeChange) int {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0
	}
	sinks := make([]FrameSink, 0, len(c.sinks))
	for _, s := range c.sinks {
		sinks = append(sinks, s)
	}
	c.mu.Unlock()

	for _, s := range sinks {
		s.PostMessage(msg)
	}
	return len(sinks)
}

// Dropped returns how many inbound payloads were ignored.
func (c *Channel) Dropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

// Close tears the channel down. Later deliveries are no-ops.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	clear(c.handlers)
	clear(c.sinks)
}

func (c *Channel) drop() {
	c.mu.Lock()
	c.dropped++
	c.mu.Unlock()
}
