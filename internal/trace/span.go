package trace

import (
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

var (
	lastSeq  atomic.Uint64
	lastSpan atomic.Uint64
)

// NextSeq returns the next global sequence number.
func NextSeq() uint64 { return lastSeq.Add(1) }

func nextSpanID() uint64 { return lastSpan.Add(1) }

// goroutineID parses the id out of the "goroutine N [...]" stack header.
// Chrome traces use it as the thread lane.
func goroutineID() uint64 {
	var buf [64]byte
	header := string(buf[:runtime.Stack(buf[:], false)])
	header = strings.TrimPrefix(header, "goroutine ")
	if i := strings.IndexByte(header, ' '); i > 0 {
		if id, err := strconv.ParseUint(header[:i], 10, 64); err == nil {
			return id
		}
	}
	return 0
}

// Span is an open begin/end pair. A nil *Span is valid and records nothing,
// which is what Start returns when the scope is filtered out.
type Span struct {
	tracer    Tracer
	id        uint64
	parent    uint64
	goroutine uint64
	scope     Scope
	name      string
	started   time.Time
	attrs     []Attr
}

// Start opens a span under parent (nil for a root) and records its begin
// event.
func Start(t Tracer, scope Scope, name string, parent *Span) *Span {
	if t == nil || !t.Level().ShouldEmit(scope) {
		return nil
	}
	s := &Span{
		tracer:    t,
		id:        nextSpanID(),
		parent:    parent.ID(),
		goroutine: goroutineID(),
		scope:     scope,
		name:      name,
		started:   time.Now(),
	}
	t.Emit(s.event(KindSpanBegin, s.started, ""))
	return s
}

// Attr attaches a key/value pair reported with the end event.
func (s *Span) Attr(key, value string) *Span {
	if s != nil {
		s.attrs = append(s.attrs, Attr{Key: key, Value: value})
	}
	return s
}

// Point records an instant event inside the span.
func (s *Span) Point(name, detail string) {
	if s == nil {
		return
	}
	ev := s.event(KindPoint, time.Now(), detail)
	ev.Name = name
	ev.SpanID = 0
	ev.ParentID = s.id
	ev.Attrs = nil
	s.tracer.Emit(ev)
}

// End records the end event and returns how long the span was open.
func (s *Span) End(detail string) time.Duration {
	if s == nil {
		return 0
	}
	now := time.Now()
	s.tracer.Emit(s.event(KindSpanEnd, now, detail))
	return now.Sub(s.started)
}

// ID returns the span id, 0 for a nil span.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}

func (s *Span) event(kind Kind, at time.Time, detail string) *Event {
	return &Event{
		Time:      at,
		Kind:      kind,
		Scope:     s.scope,
		SpanID:    s.id,
		ParentID:  s.parent,
		Goroutine: s.goroutine,
		Name:      s.name,
		Detail:    detail,
		Attrs:     s.attrs,
	}
}
