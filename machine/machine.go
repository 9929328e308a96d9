// SPDX-License-Identifier: Unlicense OR MIT

// Package machine is a simulated x86 machine: an I/O port bus routing
// to a chained 8259 interrupt controller pair and a programmable
// interval timer, plus the processor state the kernel core drives
// through its hardware interface (interrupt flag, stack pointer, the
// loaded descriptor table, the active page-table root).
package machine

import (
	"encoding/binary"
	"fmt"

	"github.com/fatih/color"
)

// Stack memory handed out to task contexts, growing down, and the
// boot stack the machine starts on.
const (
	stackRegionBase = 0x00200000
	stackRegionTop  = 0x00400000
	bootStackTop    = 0x00090000
)

// Machine models the hardware the kernel runs on. It implements both
// kernel.Hardware and kernel.AddressSpaces.
type Machine struct {
	// Deliver receives interrupt vectors the way the CPU transfers
	// control through an installed gate. Delivery suppresses
	// further interrupts for its duration.
	Deliver func(vector uint8)

	// Trace enables a colored log of port traffic and deliveries.
	Trace bool

	ports [0x10000]uint8

	master pic8259
	slave  pic8259
	pit    pit

	intf     bool
	esp      uint32
	stackBrk uint32

	idtLoaded bool
	idtLimit  uint16
	idtBase   uint32

	cr3 uint32
}

// New returns a powered-on machine: interrupts suppressed, no
// descriptor table loaded, controllers unconfigured.
func New() *Machine {
	m := &Machine{esp: bootStackTop, stackBrk: stackRegionTop}
	m.master = newPIC("master")
	m.slave = newPIC("slave")
	return m
}

// Outb routes a byte write to the addressed device.
func (m *Machine) Outb(port uint16, value uint8) {
	if m.Trace {
		color.New(color.FgCyan).Printf("out port=%#04x value=%#02x\n", port, value)
	}
	m.ports[port] = value
	switch port {
	case picMasterCmd:
		m.master.writeCommand(value)
	case picMasterData:
		m.master.writeData(value)
	case picSlaveCmd:
		m.slave.writeCommand(value)
	case picSlaveData:
		m.slave.writeData(value)
	case pitChannel0, pitControl:
		m.pit.write(port, value)
	}
	// An EOI may unblock a held line.
	if port == picMasterCmd || port == picSlaveCmd {
		m.service()
	}
}

// Inb reads a byte from the addressed device.
func (m *Machine) Inb(port uint16) uint8 {
	switch port {
	case picMasterData:
		m.ports[port] = m.master.imr
	case picSlaveData:
		m.ports[port] = m.slave.imr
	}
	if m.Trace {
		color.New(color.FgGreen).Printf("in  port=%#04x value=%#02x\n", port, m.ports[port])
	}
	return m.ports[port]
}

// LoadIDT consumes the {limit, base} table descriptor. Interrupt
// delivery is refused until a table has been loaded.
func (m *Machine) LoadIDT(desc [6]byte) {
	bo := binary.LittleEndian
	m.idtLimit = bo.Uint16(desc[0:2])
	m.idtBase = bo.Uint32(desc[2:6])
	m.idtLoaded = true
	if m.Trace {
		color.New(color.FgYellow).Printf("lidt limit=%#x base=%#x\n", m.idtLimit, m.idtBase)
	}
}

// SetInterrupts sets the interrupt flag and reports its previous
// state. Enabling delivery services any line held while the flag was
// clear.
func (m *Machine) SetInterrupts(enabled bool) bool {
	prev := m.intf
	m.intf = enabled
	if enabled && !prev {
		m.service()
	}
	return prev
}

// InterruptsEnabled reports the interrupt flag.
func (m *Machine) InterruptsEnabled() bool {
	return m.intf
}

func (m *Machine) StackPointer() uint32 {
	return m.esp
}

func (m *Machine) SetStackPointer(sp uint32) {
	m.esp = sp
}

// AllocStack reserves a 16-byte aligned stack range below the
// previous one.
func (m *Machine) AllocStack(size uint32) (uint32, error) {
	size = (size + 15) &^ 15
	if m.stackBrk-size < stackRegionBase {
		return 0, fmt.Errorf("machine: out of stack memory")
	}
	m.stackBrk -= size
	return m.stackBrk, nil
}

// Switch loads a page-table root, implementing the paging
// collaborator.
func (m *Machine) Switch(id uint32) {
	m.cr3 = id
	if m.Trace {
		color.New(color.FgYellow).Printf("cr3=%#x\n", id)
	}
}

// AddressSpace reports the active page-table root.
func (m *Machine) AddressSpace() uint32 {
	return m.cr3
}

// RaiseIRQ asserts a hardware line, 0–7 on the master and 8–15 on the
// slave. The controllers decide whether and as which vector the line
// reaches the CPU.
func (m *Machine) RaiseIRQ(irq int) {
	switch {
	case irq >= 0 && irq < 8:
		m.master.raise(uint(irq))
	case irq >= 8 && irq < 16:
		// The slave only reaches the CPU through the master's
		// cascade line.
		if m.master.ready && m.master.cascade&(1<<cascadeLine) != 0 {
			m.slave.raise(uint(irq - 8))
		}
	}
	m.service()
}

// Advance runs the timer for a number of input clock cycles, raising
// IRQ 0 at the programmed rate.
func (m *Machine) Advance(cycles int) {
	for i := m.pit.advance(cycles); i > 0; i-- {
		m.RaiseIRQ(0)
	}
}

// service delivers at most one pending vector per controller while
// the CPU accepts interrupts.
func (m *Machine) service() {
	for m.intf && m.idtLoaded && m.Deliver != nil {
		v, ok := m.master.pending()
		if !ok {
			v, ok = m.slave.pending()
		}
		if !ok {
			return
		}
		m.deliver(v)
	}
}

// deliver transfers control through the gate for vector v. Interrupt
// gates clear the interrupt flag on entry; the flag is restored when
// the handler returns.
func (m *Machine) deliver(v uint8) {
	if m.Trace {
		color.New(color.FgYellow).Printf("int vector=%d\n", v)
	}
	prev := m.intf
	m.intf = false
	m.Deliver(v)
	m.intf = prev
}
