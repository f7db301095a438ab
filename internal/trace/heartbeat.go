package trace

import (
	"fmt"
	"sync"
	"time"
)

// Heartbeat emits a liveness event at a fixed interval. A run whose trace
// keeps beating without new span ends is stuck, and the status detail tells
// how far it got.
type Heartbeat struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// StartHeartbeat beats every interval until Stop. status, when set, supplies
// the event detail. It returns nil when tracing is off or interval <= 0;
// Stop on a nil heartbeat is a no-op.
func StartHeartbeat(t Tracer, interval time.Duration, status func() string) *Heartbeat {
	if t == nil || t.Level() == LevelOff || interval <= 0 {
		return nil
	}
	h := &Heartbeat{stop: make(chan struct{}), done: make(chan struct{})}
	go h.loop(t, interval, status)
	return h
}

func (h *Heartbeat) loop(t Tracer, interval time.Duration, status func() string) {
	defer close(h.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for beat := 1; ; beat++ {
		select {
		case <-h.stop:
			return
		case now := <-ticker.C:
			detail := fmt.Sprintf("#%d", beat)
			if status != nil {
				detail += " " + status()
			}
			t.Emit(&Event{
				Time:      now,
				Kind:      KindHeartbeat,
				Scope:     ScopeDriver,
				Goroutine: goroutineID(),
				Name:      "heartbeat",
				Detail:    detail,
			})
		}
	}
}

// Stop ends the heartbeat and waits for the last beat to be emitted.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.once.Do(func() { close(h.stop) })
	<-h.done
}
