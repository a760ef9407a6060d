package hooking

// Hook positions that mark the lifetime of a task. In a test bench, a task is
// one stimulus transaction, from generation to its verdict.
var (
	HookPosTaskStart = &HookPos{Name: "HookPosTaskStart"}
	HookPosTaskEnd   = &HookPos{Name: "HookPosTaskEnd"}
)

// TaskStart is data that is passed to the hook when a task starts.
type TaskStart struct {
	ID    string
	Kind  string
	What  string
	Where string
}

// TaskEnd is data that is passed to the hook when a task ends.
type TaskEnd struct {
	ID string
}

type task struct {
	ID        string  `json:"id"`
	Kind      string  `json:"kind"`
	What      string  `json:"what"`
	StartTime float64 `json:"start_time"`
}

// TaskFilter is a function that can filter interesting tasks. If this function
// returns true, the task is considered useful.
type TaskFilter func(t TaskStart) bool

// A TimeTeller can tell the current time. This interface is recreated here
// to break a circular dependency between the timing package and the
// hooking package.
type TimeTeller interface {
	Now() float64
}
