// Package eventlog implements a structured execution log: an ordered
// stream of (time, kind, actor, detail) records. The core only ever
// writes through the Sink interface; the format is caller-chosen — this
// package ships a discard sink, a stdout sink, and a batched SQLite sink
// as the reference choices.
package eventlog

import "fmt"

// Record is one entry in the execution log.
type Record struct {
	Time   float64
	Kind   string
	Actor  string
	Detail string
}

// Sink accepts Records as a simulation runs. Sinks are never consulted on
// the read path by the core; a caller wanting to inspect a log re-opens it
// through whatever store-specific reader the sink provides (see
// SQLiteSink/NewSQLiteReader).
type Sink interface {
	Write(r Record)
}

// Discard drops every record, the default when no event log is
// configured.
type Discard struct{}

// Write implements Sink by doing nothing.
func (Discard) Write(Record) {}

// StdoutWriter writes one line per record to stdout, the simplest
// concrete sink and the one examples default to when they want a log at
// all without standing up a database.
type StdoutWriter struct{}

// Write implements Sink.
func (StdoutWriter) Write(r Record) {
	fmt.Printf("%.10f %s %s %s\n", r.Time, r.Kind, r.Actor, r.Detail)
}
