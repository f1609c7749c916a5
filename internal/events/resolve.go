package events

import "time"

// ResolveStart is emitted before an operation's pipeline runs. Seq is
// unique per process and pairs a start with its finish.
type ResolveStart struct {
	Seq        uint64
	ParentType string
	Field      string
	Kind       string
}

// ResolveFinish is emitted after an operation's pipeline returns.
type ResolveFinish struct {
	Seq        uint64
	ParentType string
	Field      string
	Kind       string
	Err        error
	Duration   time.Duration
}
