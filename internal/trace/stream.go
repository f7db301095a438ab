package trace

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

// StreamTracer writes every recorded event to w.
type StreamTracer struct {
	mu     sync.Mutex
	out    io.Writer
	buf    *bufio.Writer
	level  Level
	format Format
	count  int
	closed bool
}

// NewStreamTracer writes events of level to w in format. Output is buffered
// until Flush or Close.
func NewStreamTracer(w io.Writer, level Level, format Format) *StreamTracer {
	t := &StreamTracer{out: w, buf: bufio.NewWriter(w), level: level, format: format}
	if format == FormatChrome {
		_, _ = t.buf.WriteString("{\"traceEvents\":[\n")
	}
	return t
}

func (t *StreamTracer) Emit(ev *Event) {
	if ev.Kind != KindHeartbeat && !t.level.ShouldEmit(ev.Scope) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	ev.Seq = NextSeq()
	if t.format == FormatChrome && t.count > 0 {
		_, _ = t.buf.WriteString(",\n")
	}
	t.count++
	// write errors surface on Flush
	_, _ = t.buf.Write(FormatEvent(ev, t.format))
}

func (t *StreamTracer) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buf.Flush()
}

// Close terminates a Chrome array, flushes and closes the writer when it is
// an io.Closer.
func (t *StreamTracer) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	if t.format == FormatChrome {
		_, _ = t.buf.WriteString("\n]}\n")
	}
	err := t.buf.Flush()
	if c, ok := t.out.(io.Closer); ok {
		err = errors.Join(err, c.Close())
	}
	return err
}

func (t *StreamTracer) Level() Level { return t.level }
