package trace

import (
	"fmt"
	"sync"
	"time"
)

// Heartbeat emits a liveness event every interval. When heartbeats keep
// coming with open spans but no span ends, some file is stuck.
type Heartbeat struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// StartHeartbeat starts the ticker goroutine; it returns nil when t is
// disabled or interval is not positive. Stop is safe on nil.
func StartHeartbeat(t Tracer, interval time.Duration) *Heartbeat {
	if !Enabled(t) || interval <= 0 {
		return nil
	}
	h := &Heartbeat{stop: make(chan struct{}), done: make(chan struct{})}
	go h.run(t, interval)
	return h
}

func (h *Heartbeat) run(t Tracer, interval time.Duration) {
	defer close(h.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	open, _ := t.(interface{ Open() int64 })
	for n := 1; ; n++ {
		select {
		case <-h.stop:
			return
		case now := <-ticker.C:
			detail := fmt.Sprintf("#%d", n)
			if open != nil {
				detail += fmt.Sprintf(" open=%d", open.Open())
			}
			t.Emit(&Event{Time: now, Kind: KindHeartbeat, Scope: ScopeDriver, Name: "heartbeat", Detail: detail})
		}
	}
}

// Stop ends the goroutine and waits for it.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.once.Do(func() { close(h.stop) })
	<-h.done
}
