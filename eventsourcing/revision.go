package eventsourcing

// StreamState expresses the concurrency requirement applied when appending
// events to a stream.
type StreamState interface {
	streamState()
}

// Any means append without checking the current revision.
type Any struct{}

func (Any) streamState() {}

// NoStream means the stream should not exist yet.
type NoStream struct{}

func (NoStream) streamState() {}

// StreamExists means the stream must exist.
type StreamExists struct{}

func (StreamExists) streamState() {}

// Revision matches exactly a numeric stream revision.
type Revision uint64

func (Revision) streamState() {}
