// SPDX-License-Identifier: Unlicense OR MIT

package kernel

// Task contexts live in an arena and are addressed by stable integer
// handles. The records themselves carry prev/next handles forming a
// circular doubly-linked list of every live task; the arena owns the
// storage, handles are non-owning references.

// Task is a handle into the task arena.
type Task int32

const noTask Task = -1

// taskState is the run state of a context. The core itself only ever
// schedules; blocking is a capability exposed to collaborators, not
// implemented here.
type taskState uint32

const (
	taskRunnable taskState = iota
	taskBlocked
)

// Size of each task's dedicated execution stack.
const taskStackSize = 0x1000

// taskRecord is the per-task saved execution state.
type taskRecord struct {
	name string

	// Stack pointer captured at last suspension.
	esp uint32
	// Base of the task's dedicated stack, owned by this context.
	stackBase uint32
	// Initial instruction pointer, consumed on first resume.
	entry uint32
	// Page-table root the task runs under. A back-reference; the
	// paging structures belong to the paging collaborator.
	space uint32

	state taskState

	prev, next Task
	alive      bool
}

// initTasks installs the initial idle task: the execution flow that
// called Initialize, running on the boot stack. The circular list is
// never empty from here on.
func (k *Kernel) initTasks() error {
	h := k.allocRecord()
	t := &k.tasks[h]
	*t = taskRecord{
		name:  "idle",
		esp:   k.hw.StackPointer(),
		state: taskRunnable,
		prev:  h,
		next:  h,
		alive: true,
	}
	k.current = h
	k.live = 1
	return nil
}

// CreateTask allocates a stack and a context record for a new task
// and links it into the circular list immediately after the current
// task. entry is the task's entry point address, space the id of the
// page-table root it runs under.
func (k *Kernel) CreateTask(name string, entry, space uint32) (Task, error) {
	if !k.initialized {
		return noTask, kernError("kernel: CreateTask before Initialize")
	}
	base, err := k.hw.AllocStack(taskStackSize)
	if err != nil {
		return noTask, err
	}

	prev := k.hw.SetInterrupts(false)
	defer k.hw.SetInterrupts(prev)

	h := k.allocRecord()
	cur := k.current
	next := k.tasks[cur].next
	k.tasks[h] = taskRecord{
		name:      name,
		esp:       base + taskStackSize,
		stackBase: base,
		entry:     entry,
		space:     space,
		state:     taskRunnable,
		prev:      cur,
		next:      next,
		alive:     true,
	}
	k.tasks[cur].next = h
	k.tasks[next].prev = h
	k.live++
	return h, nil
}

// RemoveTask unlinks a task from the circular list. The last
// remaining task is never removed. If the scheduler cursor pointed at
// the removed task it moves to the successor.
func (k *Kernel) RemoveTask(h Task) error {
	prev := k.hw.SetInterrupts(false)
	defer k.hw.SetInterrupts(prev)

	if !k.validTask(h) {
		return kernError("kernel: RemoveTask of dead task")
	}
	if k.live == 1 {
		return kernError("kernel: RemoveTask would empty the task list")
	}
	t := &k.tasks[h]
	k.tasks[t.prev].next = t.next
	k.tasks[t.next].prev = t.prev
	if k.current == h {
		k.current = t.next
	}
	t.alive = false
	k.live--
	k.free = append(k.free, h)
	return nil
}

// CurrentTask reports the handle the scheduler cursor references.
func (k *Kernel) CurrentTask() Task {
	return k.current
}

// TaskName reports the identifying label of a live task.
func (k *Kernel) TaskName(h Task) string {
	if !k.validTask(h) {
		return ""
	}
	return k.tasks[h].name
}

// Tasks reports the number of live tasks.
func (k *Kernel) Tasks() int {
	return k.live
}

func (k *Kernel) validTask(h Task) bool {
	return h >= 0 && int(h) < len(k.tasks) && k.tasks[h].alive
}

// allocRecord reuses a freed slot when one exists and grows the arena
// otherwise. Handles stay stable for the lifetime of their record.
func (k *Kernel) allocRecord() Task {
	if n := len(k.free); n > 0 {
		h := k.free[n-1]
		k.free = k.free[:n-1]
		return h
	}
	k.tasks = append(k.tasks, taskRecord{})
	return Task(len(k.tasks) - 1)
}
