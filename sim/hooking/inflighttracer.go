package hooking

import (
	"sync"
)

// InFlightTracer follows tasks between their start and end positions. It
// keeps the largest number of tasks that were ever in flight at the same time
// together with the total and average time the tasks took.
type InFlightTracer struct {
	timeTeller TimeTeller
	filter     TaskFilter

	lock          sync.Mutex
	inflightTasks map[string]task
	maxInFlight   int
	totalTime     float64
	taskCount     uint64
}

// NewInFlightTracer creates a new InFlightTracer. A nil filter accepts every
// task.
func NewInFlightTracer(
	timeTeller TimeTeller,
	filter TaskFilter,
) *InFlightTracer {
	if filter == nil {
		filter = func(TaskStart) bool { return true }
	}

	return &InFlightTracer{
		timeTeller:    timeTeller,
		filter:        filter,
		inflightTasks: make(map[string]task),
	}
}

// Func records the start and the end of a task.
func (t *InFlightTracer) Func(ctx HookCtx) {
	switch ctx.Pos {
	case HookPosTaskStart:
		t.StartTask(ctx.Item.(TaskStart))
	case HookPosTaskEnd:
		t.EndTask(ctx.Item.(TaskEnd))
	}
}

// StartTask records the task start time.
func (t *InFlightTracer) StartTask(taskStart TaskStart) {
	if !t.filter(taskStart) {
		return
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	t.inflightTasks[taskStart.ID] = task{
		ID:        taskStart.ID,
		Kind:      taskStart.Kind,
		What:      taskStart.What,
		StartTime: t.timeTeller.Now(),
	}

	if len(t.inflightTasks) > t.maxInFlight {
		t.maxInFlight = len(t.inflightTasks)
	}
}

// EndTask records the end of the task.
func (t *InFlightTracer) EndTask(taskEnd TaskEnd) {
	t.lock.Lock()
	defer t.lock.Unlock()

	currTask, ok := t.inflightTasks[taskEnd.ID]
	if !ok {
		return
	}

	t.totalTime += t.timeTeller.Now() - currTask.StartTime
	t.taskCount++

	delete(t.inflightTasks, currTask.ID)
}

// InFlight returns the number of tasks started but not yet ended.
func (t *InFlightTracer) InFlight() int {
	t.lock.Lock()
	defer t.lock.Unlock()

	return len(t.inflightTasks)
}

// MaxInFlight returns the largest number of concurrently in-flight tasks.
func (t *InFlightTracer) MaxInFlight() int {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.maxInFlight
}

// TotalCount returns the number of finished tasks.
func (t *InFlightTracer) TotalCount() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.taskCount
}

// AverageTime returns the average time of the finished tasks.
func (t *InFlightTracer) AverageTime() float64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.taskCount == 0 {
		return 0
	}

	return t.totalTime / float64(t.taskCount)
}
