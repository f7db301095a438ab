package driver

import "time"

// Stage names the part of a run a progress event belongs to.
type Stage string

const (
	StageParse       Stage = "parse"
	StageDefine      Stage = "define"
	StageInstantiate Stage = "instantiate"
	StageCalls       Stage = "calls"
)

// Status is the state of a file within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event reports progress for a file (or for the whole run when File is empty).
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. OnEvent may be called from several
// goroutines.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// PhaseStatus tells whether a PhaseEvent opens or closes a phase.
type PhaseStatus int

const (
	PhaseStart PhaseStatus = iota
	PhaseEnd
)

// PhaseEvent marks a phase boundary. Elapsed is set on PhaseEnd.
type PhaseEvent struct {
	Name    string
	Status  PhaseStatus
	Elapsed time.Duration
}

// PhaseObserver is called synchronously from the goroutine running the
// driver, once at each phase boundary.
type PhaseObserver func(PhaseEvent)

func (r *runner) progress(ev Event) {
	if r.opts.Progress != nil {
		r.opts.Progress.OnEvent(ev)
	}
}
