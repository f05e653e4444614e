package fixtures

// TestCommand is a configurable test command implementing the Command interface.
type TestCommand struct {
	ID   string
	Data string
}

func (c TestCommand) AggregateID() string { return c.ID }
