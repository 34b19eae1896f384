package scheduler

// State is the scheduler's lifecycle position.
//
//	Connecting -> Running -> (Sleeping <-> Running) -> Stopped
//
// RunningNoPublish replaces Running for the rest of the process when the
// broker could not be reached at startup.
type State int32

const (
	StateConnecting State = iota
	StateRunning
	StateRunningNoPublish
	StateSleeping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateRunning:
		return "running"
	case StateRunningNoPublish:
		return "running_no_publish"
	case StateSleeping:
		return "sleeping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
