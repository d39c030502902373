package service

// State is the lifecycle state of the engine held by a Service.
type State string

const (
	StateStopped  State = "stopped"
	StateStarting State = "starting"
	StateRunning  State = "running"
	// StateDegraded follows a backend failure; the engine is kept and may recover.
	StateDegraded State = "degraded"
	StateFailed   State = "failed"
)

// Ready reports whether the state has a usable engine.
func (s State) Ready() bool {
	return s == StateRunning || s == StateDegraded
}
