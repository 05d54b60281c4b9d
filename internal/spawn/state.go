package spawn

// State is the lifecycle of a single Dispatch call.
type State string

const (
	StatePending   State = "pending"
	StateResolving State = "resolving"
	StateSpawned   State = "spawned"
	StateFailed    State = "failed"
)
