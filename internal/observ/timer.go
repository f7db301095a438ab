package observ

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Timer records how long each pass of a run took. Safe for concurrent use.
type Timer struct {
	mu     sync.Mutex
	phases []phase
}

type phase struct {
	name  string
	start time.Time
	dur   time.Duration
	note  string
	ended bool
}

func NewTimer() *Timer { return &Timer{} }

// Begin opens a phase and returns the handle End expects.
func (t *Timer) Begin(name string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phases = append(t.phases, phase{name: name, start: time.Now()})
	return len(t.phases) - 1
}

// End closes phase idx. Unknown handles and repeated calls are ignored.
func (t *Timer) End(idx int, note string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if idx < 0 || idx >= len(t.phases) || t.phases[idx].ended {
		return
	}
	p := &t.phases[idx]
	p.dur = time.Since(p.start)
	p.note = note
	p.ended = true
}

// Track is Begin with the matching End bound into a closure.
func (t *Timer) Track(name string) func(note string) {
	idx := t.Begin(name)
	return func(note string) { t.End(idx, note) }
}

// PhaseReport is one phase as it appears in timing payloads.
type PhaseReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Share      float64 `json:"share"`
	Note       string  `json:"note,omitempty"`
}

// Report is a snapshot of all phases. Phases still open count with the time
// they have run so far.
type Report struct {
	TotalMS float64       `json:"total_ms"`
	Phases  []PhaseReport `json:"phases"`
}

func (t *Timer) Report() Report {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.phases) == 0 {
		return Report{}
	}
	var total time.Duration
	durs := make([]time.Duration, len(t.phases))
	for i, p := range t.phases {
		durs[i] = p.dur
		if !p.ended {
			durs[i] = time.Since(p.start)
		}
		total += durs[i]
	}
	r := Report{TotalMS: millis(total), Phases: make([]PhaseReport, len(t.phases))}
	for i, p := range t.phases {
		r.Phases[i] = PhaseReport{Name: p.name, DurationMS: millis(durs[i]), Note: p.note}
		if total > 0 {
			r.Phases[i].Share = float64(durs[i]) / float64(total)
		}
	}
	return r
}

// Summary renders the report as a table for the terminal.
func (t *Timer) Summary() string {
	r := t.Report()
	width := len("total")
	for _, p := range r.Phases {
		width = max(width, len(p.Name))
	}

	var b strings.Builder
	b.WriteString("timings:\n")
	for _, p := range r.Phases {
		fmt.Fprintf(&b, "  %-*s %9.2f ms %5.1f%%", width, p.Name, p.DurationMS, p.Share*100)
		if p.Note != "" {
			b.WriteString("  // " + p.Note)
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "  %-*s %9.2f ms\n", width, "total", r.TotalMS)
	return b.String()
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
