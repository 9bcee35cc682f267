package driver

import "time"

// Stage describes what the driver is doing with a file.
type Stage string

const (
	// StageLoad reads and normalizes the file.
	StageLoad Stage = "load"
	// StageCache looks the file up in the disk cache.
	StageCache Stage = "cache"
	// StageIndex runs the scanner and the scope builder.
	StageIndex Stage = "index"
)

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the file is waiting for a worker.
	StatusQueued Status = "queued"
	// StatusWorking indicates the file is being processed.
	StatusWorking Status = "working"
	// StatusCached indicates the table came from the disk cache.
	StatusCached Status = "cached"
	// StatusDone indicates the file was indexed.
	StatusDone Status = "done"
	// StatusError indicates indexing stopped on a fatal error.
	StatusError Status = "error"
)

// Event reports progress for a file (or for the whole run when File is empty).
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// Finished reports whether ev is the last event for its file.
func (ev Event) Finished() bool {
	return ev.Status == StatusDone || ev.Status == StatusError || ev.Status == StatusCached
}

// ProgressSink consumes progress events. Implementations must be safe for
// concurrent use; workers emit without synchronization.
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

func emit(sink ProgressSink, ev Event) {
	if sink != nil {
		sink.OnEvent(ev)
	}
}
