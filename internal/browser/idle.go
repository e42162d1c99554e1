package browser

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
)

const (
	// idleQuiet is how long the in-flight count must stay under the limit.
	idleQuiet = 500 * time.Millisecond
	idlePoll  = 100 * time.Millisecond

	// navigationInflight mirrors the "networkidle2" navigation condition.
	navigationInflight = 2
)

// idleTracker counts in-flight requests from CDP network events.
type idleTracker struct {
	mu       sync.Mutex
	inflight map[network.RequestID]struct{}
	changed  time.Time
	now      func() time.Time
}

func newIdleTracker() *idleTracker {
	return &idleTracker{
		inflight: make(map[network.RequestID]struct{}),
		changed:  time.Now(),
		now:      time.Now,
	}
}

// handle is registered with chromedp.ListenTarget.
func (t *idleTracker) handle(ev interface{}) {
	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		t.start(e.RequestID)
	case *network.EventLoadingFinished:
		t.done(e.RequestID)
	case *network.EventLoadingFailed:
		t.done(e.RequestID)
	}
}

func (t *idleTracker) start(id network.RequestID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inflight[id] = struct{}{}
	t.changed = t.now()
}

func (t *idleTracker) done(id network.RequestID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.inflight[id]; !ok {
		return
	}
	delete(t.inflight, id)
	t.changed = t.now()
}

// reset forgets requests from a previous document.
func (t *idleTracker) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inflight = make(map[network.RequestID]struct{})
	t.changed = t.now()
}

func (t *idleTracker) idle(maxInflight int, quiet time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inflight) <= maxInflight && t.now().Sub(t.changed) >= quiet
}

// wait polls until the page has been idle for idleQuiet or timeout elapses.
func (t *idleTracker) wait(ctx context.Context, maxInflight int, timeout time.Duration) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(idlePoll)
	defer ticker.Stop()

	for {
		if t.idle(maxInflight, idleQuiet) {
			return nil
		}
		select {
		case <-deadline.C:
			return timeoutError("network idle", timeout)
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
