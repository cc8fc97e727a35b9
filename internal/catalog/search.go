package catalog

import (
	"strings"
	"sync"
	"time"
)

// SearchDebounce is how long input must stay idle before a search fires.
const SearchDebounce = 500 * time.Millisecond

// Queries shorter than this (but non-empty) do not trigger a request.
const minSearchLength = 3

// QueryForInput maps raw search input to the catalog query it should issue.
// Empty input means the unfiltered listing; one or two characters mean no
// request at all.
func QueryForInput(input string) (Query, bool) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return Query{Kind: QueryAll}, true
	}
	if len(trimmed) < minSearchLength {
		return Query{}, false
	}
	return Query{Kind: QuerySearch, Term: trimmed}, true
}

// Debouncer coalesces rapid triggers into a single callback after the delay
// elapses with no further triggers. There is one pending timer at most; a new
// trigger cancels the previous one.
type Debouncer struct {
	delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger schedules fn after the debounce delay, cancelling any pending call.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// Stop cancels any pending call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
