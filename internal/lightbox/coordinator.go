// Package lightbox holds the host page's full-screen image viewer state.
package lightbox

import (
	"sync"

	"feedmirror/internal/frames"
)

// State is a snapshot of the viewer. A closed viewer carries no images.
type State struct {
	Images  []string
	Index   int
	Visible bool
}

// Coordinator owns the lightbox state for one host document.
type Coordinator struct {
	mu      sync.Mutex
	state   State
	onShow  func(State)
	onClose func()
}

func New() *Coordinator {
	return &Coordinator{}
}

// OnChange registers callbacks for the presentation layer.
func (c *Coordinator) OnChange(show func(State), hide func()) {
	c.mu.Lock()
	c.onShow = show
	c.onClose = hide
	c.mu.Unlock()
}

// Open replaces whatever is showing. An empty image list is ignored.
func (c *Coordinator) Open(images []string, index int) bool {
	if len(images) == 0 {
		return false
	}
	imgs := make([]string, len(images))
	copy(imgs, images)

	c.mu.Lock()
	c.state = State{Images: imgs, Index: clamp(index, len(imgs)), Visible: true}
	snap, fn := c.snapshotLocked(), c.onShow
	c.mu.Unlock()

	if fn != nil {
		fn(snap)
	}
	return true
}

// Advance moves to index, clamped to the image list.
func (c *Coordinator) Advance(index int) int {
	c.mu.Lock()
	if !c.state.Visible {
		c.mu.Unlock()
		return 0
	}
	c.state.Index = clamp(index, len(c.state.Images))
	snap, fn := c.snapshotLocked(), c.onShow
	c.mu.Unlock()

	if fn != nil {
		fn(snap)
	}
	return snap.Index
}

func (c *Coordinator) Next() int {
	return c.Advance(c.State().Index + 1)
}

func (c *Coordinator) Prev() int {
	return c.Advance(c.State().Index - 1)
}

// Close hides the viewer and drops the image references.
func (c *Coordinator) Close() {
	c.mu.Lock()
	was := c.state.Visible
	c.state = State{}
	fn := c.onClose
	c.mu.Unlock()

	if was && fn != nil {
		fn()
	}
}

// Handle opens the viewer for image-click messages and ignores the rest.
func (c *Coordinator) Handle(msg frames.Message) {
	if ic, ok := msg.(frames.ImageClick); ok {
		c.Open(ic.Images, ic.Index)
	}
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Coordinator) snapshotLocked() State {
	s := c.state
	if s.Images != nil {
		s.Images = append([]string(nil), s.Images...)
	}
	return s
}

func clamp(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
