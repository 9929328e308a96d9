// SPDX-License-Identifier: Unlicense OR MIT

// Package kernel implements the interrupt dispatch and preemptive
// multitasking core: construction of the interrupt descriptor table,
// programming of the chained interrupt controllers, the task context
// arena with its circular run list, and the tick-driven round-robin
// dispatcher.
//
// The core drives the processor exclusively through the narrow
// Hardware interface, so the same logic runs against real privileged
// primitives or against the simulated machine in package machine.
package kernel

import (
	"io"
)

// kernError is an error type usable in kernel code.
type kernError string

func (k kernError) Error() string {
	return string(k)
}

// Kernel holds the process-wide state of the core: the descriptor
// table, the handler registry and the task arena. The zero value is
// not usable; construct with New and call Initialize before use.
type Kernel struct {
	hw      Hardware
	spaces  AddressSpaces
	console io.Writer

	table    idt
	handlers [idtSize]func()

	// Task arena. Records are addressed by stable Task handles;
	// prev/next fields thread all live records into a circular
	// list. current always names a live record once Initialize
	// has run.
	tasks   []taskRecord
	free    []Task
	current Task
	live    int

	// OnException, if set, receives CPU exception vectors instead
	// of the built-in console report.
	OnException func(vector uint8)

	// OnKey, if set, is invoked on each keyboard interrupt before
	// the controller is acknowledged.
	OnKey func()

	initialized bool
}

// New returns a kernel driving hw. spaces may be nil if no task ever
// changes address space. Diagnostics are written to console.
func New(hw Hardware, spaces AddressSpaces, console io.Writer) *Kernel {
	return &Kernel{
		hw:      hw,
		spaces:  spaces,
		console: console,
		current: noTask,
	}
}

// Initialize performs the ordered boot sequence: build the vector
// table, remap the interrupt controllers away from the exception
// range, hand the table descriptor to the CPU, install the initial
// idle task and finally enable interrupt delivery. Any failure aborts
// boot; there is no partial startup.
func (k *Kernel) Initialize() error {
	if k.initialized {
		return kernError("kernel: already initialized")
	}
	// Interrupts stay off until every gate is installed.
	k.hw.SetInterrupts(false)
	if err := k.buildTable(); err != nil {
		return err
	}
	k.remapController()
	k.hw.LoadIDT(k.table.descriptor(idtBase))
	if err := k.initTasks(); err != nil {
		return err
	}
	k.initialized = true
	k.hw.SetInterrupts(true)
	return nil
}

// Interrupt routes a delivered vector to its handler. It is the
// entry point the hardware (or machine model) transfers control to;
// delivery arrives with further interrupts suppressed.
func (k *Kernel) Interrupt(vector uint8) {
	if h := k.handlers[vector]; h != nil {
		h()
		return
	}
	// Nothing installed yet; a stray line must not destabilize the
	// system. Acknowledge if a controller originated it.
	k.ack(vec(vector))
}
