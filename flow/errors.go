package flow

import "fmt"

// NodeError wraps a failure with the node that caused it.
type NodeError struct {
	ID    ID
	Kind  NodeKind
	Label string
	Err   error
}

func (e *NodeError) Error() string {
	if e.Label == "" {
		return fmt.Sprintf("%s%d: %v", e.Kind, e.ID, e.Err)
	}
	return fmt.Sprintf("%s%d (%s): %v", e.Kind, e.ID, e.Label, e.Err)
}

func (e *NodeError) Unwrap() error { return e.Err }

// SourceReadError is a failure of a source adapter.
type SourceReadError struct {
	Source string
	Err    error
}

func (e *SourceReadError) Error() string {
	return fmt.Sprintf("source %q: %v", e.Source, e.Err)
}

func (e *SourceReadError) Unwrap() error { return e.Err }

// SinkWriteError is a failure of a sink adapter.
type SinkWriteError struct {
	Sink string
	Err  error
}

func (e *SinkWriteError) Error() string {
	return fmt.Sprintf("sink %q: %v", e.Sink, e.Err)
}

func (e *SinkWriteError) Unwrap() error { return e.Err }
