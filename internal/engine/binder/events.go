package binder

// EventKind classifies what a name occurrence does to the accumulator.
type EventKind int

const (
	EventImport EventKind = iota
	EventFunction
	EventClass
	EventLoad // never emitted; reads do not touch the accumulator
	EventStore
	EventDelete
)

var eventKindNames = [...]string{
	EventImport:   "import",
	EventFunction: "function",
	EventClass:    "class",
	EventLoad:     "load",
	EventStore:    "store",
	EventDelete:   "delete",
}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventKindNames) {
		return "unknown"
	}
	return eventKindNames[k]
}

// Binds reports whether the event adds its name to the accumulator.
func (k EventKind) Binds() bool {
	switch k {
	case EventImport, EventFunction, EventClass, EventStore:
		return true
	}
	return false
}

// Event is one name occurrence seen during traversal. Line is 1-based.
type Event struct {
	Kind EventKind
	Name string
	Line int
}
