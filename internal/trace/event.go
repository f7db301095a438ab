package trace

import "time"

// Kind is the shape of an event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
	KindHeartbeat
)

var kindNames = [...]string{
	KindSpanBegin: "begin",
	KindSpanEnd:   "end",
	KindPoint:     "point",
	KindHeartbeat: "heartbeat",
}

func (k Kind) String() string {
	if k > 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Scope is the granularity of an event. Coarser scopes have lower values.
type Scope uint8

const (
	ScopeDriver   Scope = iota + 1 // a whole run
	ScopePass                      // load, define, prepare, instantiate, calls, snapshot
	ScopeInstance                  // population of one shell
	ScopeMember                    // one cloned member
)

var scopeNames = [...]string{
	ScopeDriver:   "driver",
	ScopePass:     "pass",
	ScopeInstance: "instance",
	ScopeMember:   "member",
}

func (s Scope) String() string {
	if s > 0 && int(s) < len(scopeNames) {
		return scopeNames[s]
	}
	return "unknown"
}

// Attr is a key/value pair attached to an event, kept in insertion order.
type Attr struct {
	Key   string
	Value string
}

// Event is one entry of the timeline.
type Event struct {
	Time      time.Time
	Seq       uint64 // assigned by the tracer that stores the event
	Kind      Kind
	Scope     Scope
	SpanID    uint64
	ParentID  uint64 // 0 for roots
	Goroutine uint64
	Name      string
	Detail    string
	Attrs     []Attr
}

// Attr returns the value of the first attribute named key.
func (ev *Event) Attr(key string) (string, bool) {
	for _, a := range ev.Attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// Point records an instant event.
func Point(t Tracer, scope Scope, name, detail string) {
	if t == nil || !t.Level().ShouldEmit(scope) {
		return
	}
	t.Emit(&Event{
		Time:      time.Now(),
		Kind:      KindPoint,
		Scope:     scope,
		Goroutine: goroutineID(),
		Name:      name,
		Detail:    detail,
	})
}
