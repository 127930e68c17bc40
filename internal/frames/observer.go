package frames

import (
	"sync"
	"time"
)

// Observer abstracts a platform change-notification primitive: visibility,
// resize, mutation or a plain timer. After Stop returns, onChange is never
// invoked again.
type Observer interface {
	Start(target string, onChange func())
	Stop()
}

// ManualObserver fires only when told to. It stands in for browser
// observers when the host model runs outside a browser.
type ManualObserver struct {
	mu       sync.Mutex
	target   string
	onChange func()
	stopped  bool
}

func (o *ManualObserver) Start(target string, onChange func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.target = target
	o.onChange = onChange
	o.stopped = false
}

func (o *ManualObserver) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopped = true
	o.onChange = nil
}

// Fire invokes the callback if the observer is running. It reports whether
// the callback ran.
func (o *ManualObserver) Fire() bool {
	o.mu.Lock()
	cb := o.onChange
	active := !o.stopped && cb != nil
	o.mu.Unlock()
	if !active {
		return false
	}
	cb()
	return true
}

// Active reports whether the observer is started and not stopped.
func (o *ManualObserver) Active() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return !o.stopped && o.onChange != nil
}

// Target returns the last target passed to Start.
func (o *ManualObserver) Target() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.target
}

// TimerObserver fires once after Delay. Used for fallback timeouts such as
// hiding an ad placeholder that never filled.
type TimerObserver struct {
	Delay time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

func (o *TimerObserver) Start(_ string, onChange func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.timer != nil {
		o.timer.Stop()
	}
	o.stopped = false
	o.timer = time.AfterFunc(o.Delay, func() {
		o.mu.Lock()
		if o.stopped {
			o.mu.Unlock()
			return
		}
		o.stopped = true
		o.mu.Unlock()
		onChange()
	})
}

func (o *TimerObserver) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopped = true
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
}
