// SPDX-License-Identifier: Unlicense OR MIT

package kernel

import (
	"encoding/binary"
)

// There are 256 interrupt vectors available.
const idtSize = 256

// Modeled address the descriptor table is published at. The CPU only
// ever sees the table through the descriptor handed to LoadIDT.
const idtBase = 0x1000

// gateDescriptor is the exact 8-byte interrupt gate layout the CPU
// consumes: split 32-bit handler offset, code segment selector, a
// mandatory zero byte and the attribute byte.
type gateDescriptor [8]byte

const (
	// Selector of the kernel code segment. The low 3 bits are TI
	// and RPL, both zero; the index selects the first descriptor
	// after the null entry.
	gateKernelCS = 0x08

	gatePresent = 1 << 7
	gateDPL0    = 0 << 5
	gate32Bit   = 0xe // 32-bit interrupt gate.

	// All gates in this kernel are present ring-0 interrupt gates.
	gateAttrs = gatePresent | gateDPL0 | gate32Bit
)

// encodeGate builds the packed gate record for a handler entry
// address.
func encodeGate(handler uint32) gateDescriptor {
	var g gateDescriptor
	bo := binary.LittleEndian
	bo.PutUint16(g[0:2], uint16(handler))
	bo.PutUint16(g[2:4], gateKernelCS)
	g[4] = 0
	g[5] = gateAttrs
	bo.PutUint16(g[6:8], uint16(handler>>16))
	return g
}

// handler reconstructs the entry address from the split offset
// fields.
func (g gateDescriptor) handler() uint32 {
	bo := binary.LittleEndian
	lo := uint32(bo.Uint16(g[0:2]))
	hi := uint32(bo.Uint16(g[6:8]))
	return hi<<16 | lo
}

func (g gateDescriptor) selector() uint16 {
	return binary.LittleEndian.Uint16(g[2:4])
}

func (g gateDescriptor) attributes() uint8 {
	return g[5]
}

func (g gateDescriptor) present() bool {
	return g[5]&gatePresent != 0
}

// idt is the fixed-size descriptor table, indexed by vector number.
// Never touched after initialization.
type idt [idtSize]gateDescriptor

// register writes the gate for vector index. An out-of-range index is
// a build-time logic defect and yields the fatal configuration error
// without touching the table.
func (t *idt) register(index int, handler uint32) error {
	if index < 0 || index >= idtSize {
		return kernError("idt: vector index out of range")
	}
	t[index] = encodeGate(handler)
	return nil
}

// descriptor returns the 6-byte operand of the privileged table load:
// a 16-bit size-minus-one followed by the 32-bit table address.
func (t *idt) descriptor(base uint32) [6]byte {
	var d [6]byte
	bo := binary.LittleEndian
	bo.PutUint16(d[0:2], uint16(len(t)*len(gateDescriptor{})-1))
	bo.PutUint32(d[2:6], base)
	return d
}
