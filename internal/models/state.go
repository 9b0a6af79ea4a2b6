package models

// EntityClass distinguishes the two kinds of monitored entities. The class
// determines the retention bound for recent errors and the topic layout used
// when state is published.
type EntityClass string

const (
	EntityContainer EntityClass = "container"
	EntityKernel    EntityClass = "kernel"
)

// RetentionBound returns the maximum number of recent errors kept for an
// entity of this class.
func (c EntityClass) RetentionBound() int {
	if c == EntityKernel {
		return 10
	}
	return 5
}

// EntityErrorState is the persistent per-entity error record. Instances live
// for the process lifetime and are owned exclusively by the tracker registry;
// consumers receive copies.
type EntityErrorState struct {
	EntityID           string
	Class              EntityClass
	HasEverErrored     bool
	LastError          ClassifiedEvent
	LastErrorLevel     Severity
	RecentErrors       []ClassifiedEvent
	CurrentWindowCount int
}

// NoErrorSentinel returns the explicit "no error" event published for an
// entity that has never errored. Kernel entities carry no level field.
func NoErrorSentinel(class EntityClass) ClassifiedEvent {
	if class == EntityKernel {
		return ClassifiedEvent{Msg: "none", Timestamp: ""}
	}
	return ClassifiedEvent{Level: SeverityNone, Msg: "none"}
}
