// SPDX-License-Identifier: Unlicense OR MIT

package kernel

// Tick is the timer line's handler: it suspends the running task,
// rotates the scheduler cursor one step and resumes the successor.
// Strict insertion-order rotation, no priorities. Invoked from the
// interrupt path, it must run to completion quickly; normal execution
// stays suspended until it returns.
func (k *Kernel) Tick() {
	prev := k.hw.SetInterrupts(false)

	out := &k.tasks[k.current]
	out.esp = k.hw.StackPointer()

	k.current = out.next
	in := &k.tasks[k.current]

	k.hw.SetStackPointer(in.esp)
	if in.space != out.space && k.spaces != nil {
		k.spaces.Switch(in.space)
	}

	// Acknowledge last, so a burst of ticks cannot reenter the
	// rotation above.
	k.ack(vecTimer)
	k.hw.SetInterrupts(prev)
}
