// Package pagination drives incremental mounting of listing frames.
//
// A Controller exists per pagination key (a tag, a post's replies, the
// headline listing). Page 1 mounts eagerly; each later page mounts when the
// load-more sentinel comes near the viewport, but only after the previous
// page has reported its height. Pages therefore mount strictly in order,
// never skipped and never twice, and never beyond MaxPages.
package pagination

import (
	"fmt"
	"sync"

	"feedmirror/internal/frames"
	"feedmirror/internal/types"
)

// Phase is the controller's coarse state.
type Phase int

const (
	Idle Phase = iota
	Loading
	Loaded
	Exhausted
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Exhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// PageState is the host-owned record for one mounted page.
type PageState struct {
	Mounted bool
	Height  int
	Loading bool
}

// Controller is the per-key state machine. It is safe for concurrent use,
// though a host document drives it from a single event loop.
type Controller struct {
	Key        string
	MaxPages   int
	RootMargin int

	mu       sync.Mutex
	pages    []PageState // pages[i] is page i+1
	terminal bool
	observer frames.Observer
	onMount  func(page int)
	closed   bool
}

// New creates a controller in the Idle phase.
func New(key string, maxPages, rootMargin int) *Controller {
	if maxPages < 1 {
		maxPages = 1
	}
	return &Controller{Key: key, MaxPages: maxPages, RootMargin: rootMargin}
}

// ForListing creates a controller with the listing kind's fixed bounds.
func ForListing(kind types.ListingKind, scope string) *Controller {
	return New(kind.Key(scope), kind.MaxPages(), kind.RootMargin())
}

// Allows reports whether page is within 1..max for a listing kind.
func Allows(kind types.ListingKind, page int) bool {
	return page >= 1 && page <= kind.MaxPages()
}

// OnMount registers the callback that actually mounts a page's frame.
func (c *Controller) OnMount(fn func(page int)) {
	c.mu.Lock()
	c.onMount = fn
	c.mu.Unlock()
}

// Mount performs the eager first-page load. It is a no-op after the first call.
func (c *Controller) Mount() bool {
	c.mu.Lock()
	if c.closed || len(c.pages) > 0 {
		c.mu.Unlock()
		return false
	}
	c.pages = append(c.pages, PageState{Mounted: true, Loading: true})
	fn := c.onMount
	c.mu.Unlock()

	if fn != nil {
		fn(1)
	}
	return true
}

// OnSentinelVisible mounts the next page if allowed and returns it.
func (c *Controller) OnSentinelVisible() (int, bool) {
	c.mu.Lock()
	n := len(c.pages)
	if c.closed || n == 0 || c.terminal || n >= c.MaxPages || c.pages[n-1].Loading {
		c.mu.Unlock()
		return 0, false
	}
	c.pages = append(c.pages, PageState{Mounted: true, Loading: true})
	next := n + 1
	fn := c.onMount
	c.mu.Unlock()

	if fn != nil {
		fn(next)
	}
	return next, true
}

// OnHeightReport records a frame's reported height. Repeated reports for a
// page overwrite each other; the last one wins. Reports for pages that were
// never mounted are ignored.
func (c *Controller) OnHeightReport(page, height int, terminal bool) bool {
	c.mu.Lock()
	if c.closed || page < 1 || page > len(c.pages) || height < 0 {
		c.mu.Unlock()
		return false
	}
	ps := &c.pages[page-1]
	ps.Height = height
	ps.Loading = false
	if terminal && page == len(c.pages) {
		c.terminal = true
	}
	exhausted := c.exhaustedLocked()
	obs := c.observer
	if exhausted {
		c.observer = nil
	}
	c.mu.Unlock()

	if exhausted && obs != nil {
		obs.Stop()
	}
	return true
}

// Handle adapts the controller to a frames.Channel subscription.
func (c *Controller) Handle(msg frames.Message) {
	if hr, ok := msg.(frames.HeightReport); ok {
		c.OnHeightReport(hr.Page, hr.Height, hr.Terminal)
	}
}

// Watch binds the load-more sentinel observer. It is stopped on exhaustion
// and on Close.
func (c *Controller) Watch(o frames.Observer, target string) {
	c.mu.Lock()
	if c.closed || c.exhaustedLocked() {
		c.mu.Unlock()
		return
	}
	prev := c.observer
	c.observer = o
	c.mu.Unlock()

	if prev != nil {
		prev.Stop()
	}
	o.Start(target, func() { c.OnSentinelVisible() })
}

// Close detaches the observer. Calls after Close are no-ops.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	obs := c.observer
	c.observer = nil
	c.onMount = nil
	c.mu.Unlock()

	if obs != nil {
		obs.Stop()
	}
}

// Phase returns the current phase and the highest mounted page.
func (c *Controller) Phase() (Phase, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.pages)
	switch {
	case n == 0:
		return Idle, 0
	case c.pages[n-1].Loading:
		return Loading, n
	case c.exhaustedLocked():
		return Exhausted, n
	default:
		return Loaded, n
	}
}

// Pages returns the mounted page numbers, always 1..n.
func (c *Controller) Pages() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]int, len(c.pages))
	for i := range c.pages {
		out[i] = i + 1
	}
	return out
}

// Page returns the state of a mounted page.
func (c *Controller) Page(page int) (PageState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if page < 1 || page > len(c.pages) {
		return PageState{}, false
	}
	return c.pages[page-1], true
}

// Exhausted reports whether the end-of-list marker should show.
func (c *Controller) Exhausted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exhaustedLocked()
}

func (c *Controller) exhaustedLocked() bool {
	n := len(c.pages)
	if n == 0 || c.pages[n-1].Loading {
		return false
	}
	return n >= c.MaxPages || c.terminal
}
