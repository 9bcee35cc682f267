package trace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Mode selects where a Recorder keeps events.
type Mode uint8

const (
	ModeStream Mode = iota + 1 // write each event immediately
	ModeRing                   // keep the last RingSize events, dump on exit
	ModeBoth
)

func (m Mode) String() string {
	switch m {
	case ModeStream:
		return "stream"
	case ModeRing:
		return "ring"
	case ModeBoth:
		return "both"
	}
	return "unknown"
}

// ParseMode accepts stream|ring|both in any case.
func ParseMode(s string) (Mode, error) {
	for _, m := range []Mode{ModeStream, ModeRing, ModeBoth} {
		if strings.EqualFold(s, m.String()) {
			return m, nil
		}
	}
	return ModeRing, fmt.Errorf("invalid storage mode: %q (expected: stream|ring|both)", s)
}

// DefaultRingSize is used when Config.RingSize is not positive.
const DefaultRingSize = 4096

// Config describes a Recorder.
type Config struct {
	Level Level
	Mode  Mode
	// Format of streamed output; FormatAuto picks NDJSON for *.ndjson and
	// *.jsonl paths and text otherwise.
	Format Format
	// Output wins over OutputPath. OutputPath "" or "-" means stderr.
	Output     io.Writer
	OutputPath string
	RingSize   int
	Heartbeat  time.Duration
}

// Recorder is the only real Tracer: an optional stream writer plus an
// optional in-memory ring of the latest events.
type Recorder struct {
	level  Level
	format Format

	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
	ring   []Event
	head   int
	full   bool

	seq  atomic.Uint64
	open atomic.Int64
}

// New builds a tracer for cfg. LevelOff yields Nop.
func New(cfg Config) (Tracer, error) {
	if cfg.Level == LevelOff {
		return Nop, nil
	}
	r := &Recorder{level: cfg.Level, format: cfg.Format}
	if r.format == FormatAuto {
		r.format = FormatForPath(cfg.OutputPath)
	}

	switch cfg.Mode {
	case ModeStream, ModeBoth:
		if err := r.openOutput(cfg); err != nil {
			return nil, err
		}
	case ModeRing:
	default:
		return nil, fmt.Errorf("unknown storage mode: %v", cfg.Mode)
	}
	if cfg.Mode == ModeRing || cfg.Mode == ModeBoth {
		size := cfg.RingSize
		if size <= 0 {
			size = DefaultRingSize
		}
		r.ring = make([]Event, size)
	}
	return r, nil
}

// NewRecorder is New for callers that want the concrete type; it never
// returns Nop.
func NewRecorder(level Level, w io.Writer, format Format, ringSize int) *Recorder {
	r := &Recorder{level: level, w: w, format: format}
	if ringSize > 0 {
		r.ring = make([]Event, ringSize)
	}
	return r
}

func (r *Recorder) openOutput(cfg Config) error {
	switch {
	case cfg.Output != nil:
		r.w = cfg.Output
	case cfg.OutputPath == "" || cfg.OutputPath == "-":
		r.w = os.Stderr
	default:
		f, err := os.Create(cfg.OutputPath)
		if err != nil {
			return fmt.Errorf("failed to open trace output: %w", err)
		}
		r.w, r.closer = f, f
	}
	return nil
}

// Level implements Tracer.
func (r *Recorder) Level() Level { return r.level }

// Buffered reports whether the recorder keeps a ring.
func (r *Recorder) Buffered() bool { return r.ring != nil }

// Open returns the number of spans begun but not yet ended.
func (r *Recorder) Open() int64 { return r.open.Load() }

// Emit implements Tracer. Heartbeats bypass the level filter.
func (r *Recorder) Emit(ev *Event) {
	if ev.Kind != KindHeartbeat && !r.level.Allows(ev.Scope) {
		return
	}
	switch ev.Kind {
	case KindSpanBegin:
		r.open.Add(1)
	case KindSpanEnd:
		r.open.Add(-1)
	}

	stored := *ev
	stored.Seq = r.seq.Add(1)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ring != nil {
		r.ring[r.head] = stored
		r.head = (r.head + 1) % len(r.ring)
		if r.head == 0 {
			r.full = true
		}
	}
	if r.w != nil {
		// сбой записи трассы не должен ронять индексацию
		_, _ = r.w.Write(FormatEvent(&stored, r.format))
	}
}

// Snapshot returns the ring contents oldest first.
func (r *Recorder) Snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		return append([]Event(nil), r.ring[:r.head]...)
	}
	out := make([]Event, 0, len(r.ring))
	out = append(out, r.ring[r.head:]...)
	return append(out, r.ring[:r.head]...)
}

// Dump writes the ring in format.
func (r *Recorder) Dump(w io.Writer, format Format) error {
	for _, ev := range r.Snapshot() {
		if _, err := w.Write(FormatEvent(&ev, format)); err != nil {
			return err
		}
	}
	return nil
}

// Flush implements Tracer.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// Close flushes and closes a file opened by New.
func (r *Recorder) Close() error {
	err := r.Flush()
	if r.closer != nil {
		err = errors.Join(err, r.closer.Close())
		r.closer = nil
	}
	return err
}
