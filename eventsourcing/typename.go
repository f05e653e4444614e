package eventsourcing

import (
	"reflect"
)

// TypeName returns the stable name of a message type. Events name themselves
// via EventType(); anything else falls back to the unqualified struct name.
func TypeName(v any) string {
	if ev, ok := v.(Event); ok && ev != nil {
		return ev.EventType()
	}

	t := reflect.TypeOf(v)
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
