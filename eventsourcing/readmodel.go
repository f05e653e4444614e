package eventsourcing

// ReadModel represents a query-side data model in a CQRS architecture. It
// provides an interface for retrieving read-optimized data.
type ReadModel interface {
}
