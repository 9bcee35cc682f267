// Package trace provides the structured tracing used as strata's log.
//
// Трасса — это поток событий: начало и конец span'ов, точечные события и
// heartbeat. Через неё видно, какие фазы и файлы обрабатывались и сколько
// это заняло; по ней же ищутся зависания на конкретном файле.
//
// # Usage
//
//	strata index --trace=- --trace-level=detail ./lib
//	strata index --trace=run.ndjson --trace-mode=both ./lib
//
// # Architecture
//
//   - Nop: zero-overhead tracer when disabled
//   - Recorder: writes each event to a stream, keeps the last N in a ring,
//     or both; the ring is dumped when the command exits
//   - Heartbeat: periodic liveness events carrying the open span count
//
// # Levels and scopes
//
// LevelPhase emits ScopeDriver and ScopePass events, LevelDetail adds
// ScopeFile, LevelDebug adds ScopeNode (one event per scanned expression).
//
// # Context Propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopePass, "index", parentID)
//	defer span.End("")
package trace
