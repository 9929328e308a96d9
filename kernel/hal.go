// SPDX-License-Identifier: Unlicense OR MIT

package kernel

// Hardware is the narrow interface to the privileged processor and
// port primitives the core needs. Every method must be atomic with
// respect to interrupt delivery; the core assumes nothing about
// calling conventions beyond that.
type Hardware interface {
	// Outb writes one byte to an I/O port.
	Outb(port uint16, value uint8)
	// Inb reads one byte from an I/O port.
	Inb(port uint16) uint8

	// LoadIDT hands the CPU the 6-byte {limit, base} table
	// descriptor. Called exactly once, during Initialize.
	LoadIDT(desc [6]byte)

	// SetInterrupts enables or suppresses interrupt delivery and
	// reports the previous state, so callers can restore it.
	SetInterrupts(enabled bool) bool

	// StackPointer and SetStackPointer access the CPU stack
	// pointer, used by the dispatcher to suspend and resume task
	// contexts.
	StackPointer() uint32
	SetStackPointer(sp uint32)

	// AllocStack reserves size bytes for a task stack and returns
	// its base address. The stack is exclusively owned by the
	// requesting task context until the task is destroyed.
	AllocStack(size uint32) (uint32, error)
}

// AddressSpaces is the paging collaborator: it switches the active
// page-table root. The core never manipulates paging structures
// itself; it only tracks which root each task runs under.
type AddressSpaces interface {
	Switch(id uint32)
}
