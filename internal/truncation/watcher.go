// Package truncation decides whether a clamped text block overflows its
// visible lines, so the host can show a "more" affordance.
package truncation

import (
	"sync"
	"unicode/utf8"
)

// Measurer reports a block's full content height and its clamped visible
// height. ok is false when the block cannot be measured yet.
type Measurer interface {
	Measure() (content, visible int, ok bool)
}

// MeasureFunc adapts a plain function to Measurer.
type MeasureFunc func() (int, int, bool)

func (f MeasureFunc) Measure() (int, int, bool) { return f() }

// State is the per-block result.
type State struct {
	Overflowing bool
}

// Watcher re-evaluates a block on mount, content change and resize.
type Watcher struct {
	m Measurer

	mu      sync.Mutex
	state   State
	stopped bool
	notify  func(State)
}

func NewWatcher(m Measurer) *Watcher {
	return &Watcher{m: m}
}

// OnChange registers a callback invoked whenever Overflowing flips.
func (w *Watcher) OnChange(fn func(State)) {
	w.mu.Lock()
	w.notify = fn
	w.mu.Unlock()
}

func (w *Watcher) Mount() State          { return w.evaluate() }
func (w *Watcher) ContentChanged() State { return w.evaluate() }
func (w *Watcher) Resized() State        { return w.evaluate() }

// Stop detaches the watcher. Later evaluations return the last state.
func (w *Watcher) Stop() {
	w.mu.Lock()
	w.stopped = true
	w.notify = nil
	w.mu.Unlock()
}

func (w *Watcher) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Watcher) evaluate() State {
	w.mu.Lock()
	if w.stopped {
		s := w.state
		w.mu.Unlock()
		return s
	}
	next := State{Overflowing: Overflows(w.m)}
	changed := next != w.state
	w.state = next
	fn := w.notify
	w.mu.Unlock()

	if changed && fn != nil {
		fn(next)
	}
	return next
}

// Overflows measures once. An unmeasurable block never overflows.
func Overflows(m Measurer) bool {
	if m == nil {
		return false
	}
	content, visible, ok := m.Measure()
	if !ok {
		return false
	}
	return content > visible
}

// EstimateMeasurer approximates a block's layout from its text so the server
// can render cards with an initial truncated class. The frame script then
// re-measures with real boxes.
type EstimateMeasurer struct {
	Text         string
	Lines        int // visible line clamp
	CharsPerLine int
	LineHeight   int
}

func (e EstimateMeasurer) Measure() (int, int, bool) {
	if e.Lines <= 0 || e.CharsPerLine <= 0 || e.LineHeight <= 0 {
		return 0, 0, false
	}
	lines := 0
	for _, para := range splitLines(e.Text) {
		n := utf8.RuneCountInString(para)
		if n == 0 {
			lines++
			continue
		}
		lines += (n + e.CharsPerLine - 1) / e.CharsPerLine
	}
	return lines * e.LineHeight, e.Lines * e.LineHeight, true
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return append(out, s[start:])
}
