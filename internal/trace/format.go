package trace

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Format is the encoding of written events.
type Format uint8

const (
	FormatAuto   Format = iota // chosen from the output path
	FormatText                 // one indented line per event
	FormatNDJSON               // one JSON object per line
	FormatChrome               // chrome://tracing and Perfetto
)

var formatNames = [...]string{
	FormatAuto:   "auto",
	FormatText:   "text",
	FormatNDJSON: "ndjson",
	FormatChrome: "chrome",
}

func (f Format) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return "unknown"
}

// ParseFormat converts a flag value to a Format; "json" means NDJSON.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(s)
	switch s {
	case "":
		return FormatAuto, nil
	case "json":
		return FormatNDJSON, nil
	}
	for f, name := range formatNames {
		if s == name {
			return Format(f), nil
		}
	}
	return FormatAuto, fmt.Errorf("invalid trace format: %q (expected: auto|text|ndjson|chrome)", s)
}

// FormatEvent encodes ev. Chrome events are bare array elements; the stream
// tracer writes the brackets and separators.
func FormatEvent(ev *Event, format Format) []byte {
	switch format {
	case FormatNDJSON:
		return encodeNDJSON(ev)
	case FormatChrome:
		return encodeChrome(ev)
	}
	return encodeText(ev)
}

type ndjsonEvent struct {
	Time      string            `json:"time"`
	Seq       uint64            `json:"seq"`
	Kind      string            `json:"kind"`
	Scope     string            `json:"scope"`
	SpanID    uint64            `json:"span_id,omitempty"`
	ParentID  uint64            `json:"parent_id,omitempty"`
	Goroutine uint64            `json:"goroutine,omitempty"`
	Name      string            `json:"name"`
	Detail    string            `json:"detail,omitempty"`
	Attrs     map[string]string `json:"attrs,omitempty"`
}

func encodeNDJSON(ev *Event) []byte {
	data, err := json.Marshal(ndjsonEvent{
		Time:      ev.Time.Format(time.RFC3339Nano),
		Seq:       ev.Seq,
		Kind:      ev.Kind.String(),
		Scope:     ev.Scope.String(),
		SpanID:    ev.SpanID,
		ParentID:  ev.ParentID,
		Goroutine: ev.Goroutine,
		Name:      ev.Name,
		Detail:    ev.Detail,
		Attrs:     attrMap(ev, false),
	})
	if err != nil {
		return nil
	}
	return append(data, '\n')
}

type chromeEvent struct {
	Name  string            `json:"name"`
	Cat   string            `json:"cat"`
	Ph    string            `json:"ph"`
	TS    int64             `json:"ts"`
	PID   int               `json:"pid"`
	TID   uint64            `json:"tid"`
	Scope string            `json:"s,omitempty"`
	Args  map[string]string `json:"args,omitempty"`
}

func encodeChrome(ev *Event) []byte {
	c := chromeEvent{
		Name: ev.Name,
		Cat:  ev.Scope.String(),
		Ph:   "i",
		TS:   ev.Time.UnixMicro(),
		PID:  1,
		TID:  ev.Goroutine,
		Args: attrMap(ev, true),
	}
	switch ev.Kind {
	case KindSpanBegin:
		c.Ph = "B"
	case KindSpanEnd:
		c.Ph = "E"
	default:
		c.Scope = "t"
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil
	}
	return data
}

func attrMap(ev *Event, withDetail bool) map[string]string {
	if len(ev.Attrs) == 0 && (!withDetail || ev.Detail == "") {
		return nil
	}
	m := make(map[string]string, len(ev.Attrs)+1)
	for _, a := range ev.Attrs {
		m[a.Key] = a.Value
	}
	if withDetail && ev.Detail != "" {
		m["detail"] = ev.Detail
	}
	return m
}

var textMarks = [...]string{
	KindSpanBegin: "→ ",
	KindSpanEnd:   "← ",
	KindPoint:     "• ",
	KindHeartbeat: "♡ ",
}

// encodeText renders `[seq] <indent><mark>scope:name (detail) {k=v, ...}`.
// Nested events are indented once; the parent chain is not tracked.
func encodeText(ev *Event) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "[%6d] ", ev.Seq)
	if ev.ParentID != 0 {
		b.WriteString("  ")
	}
	if int(ev.Kind) < len(textMarks) {
		b.WriteString(textMarks[ev.Kind])
	}
	b.WriteString(ev.Scope.String())
	b.WriteByte(':')
	b.WriteString(ev.Name)
	if ev.Detail != "" {
		fmt.Fprintf(&b, " (%s)", ev.Detail)
	}
	if len(ev.Attrs) > 0 {
		b.WriteString(" {")
		for i, a := range ev.Attrs {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(a.Key + "=" + a.Value)
		}
		b.WriteByte('}')
	}
	b.WriteByte('\n')
	return []byte(b.String())
}
