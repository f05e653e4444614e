package eventsourcing

// Command represents the intent to perform a domain action against a single
// aggregate instance.
type Command interface {
	AggregateID() string
}
