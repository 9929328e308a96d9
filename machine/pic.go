// SPDX-License-Identifier: Unlicense OR MIT

package machine

// Model of one 8259 interrupt controller. The device leaves reset in
// an unconfigured state and must be walked through the strict
// ICW1–ICW4 initialization sequence before it delivers anything; a
// malformed sequence leaves it undefined and permanently silent,
// which is exactly what the real part does.

const (
	picMasterCmd  = 0x20
	picMasterData = 0x21
	picSlaveCmd   = 0xa0
	picSlaveData  = 0xa1

	cascadeLine = 2
)

const (
	picICW1Init = 0x10
	picICW1ICW4 = 0x01
	picEOI      = 0x20
)

// Initialization sequence progress.
const (
	picReady = iota
	picExpectICW2
	picExpectICW3
	picExpectICW4
)

type pic8259 struct {
	name string

	// Programmed configuration.
	base     uint8
	cascade  uint8
	mode8086 bool
	imr      uint8

	// Request and in-service registers.
	irr uint8
	isr uint8

	initStep  int
	needICW4  bool
	ready     bool
	undefined bool
}

func newPIC(name string) pic8259 {
	return pic8259{name: name}
}

func (p *pic8259) writeCommand(v uint8) {
	if p.undefined {
		return
	}
	switch {
	case v&picICW1Init != 0:
		// ICW1 restarts the handshake and clears the mask.
		p.initStep = picExpectICW2
		p.needICW4 = v&picICW1ICW4 != 0
		p.ready = false
		p.imr = 0
		p.irr = 0
		p.isr = 0
	case v == picEOI:
		p.eoi()
	}
}

func (p *pic8259) writeData(v uint8) {
	if p.undefined {
		return
	}
	switch p.initStep {
	case picReady:
		// OCW1: interrupt mask.
		p.imr = v
	case picExpectICW2:
		// Vector base. The low 3 bits are ignored by the part.
		p.base = v &^ 0x7
		p.initStep = picExpectICW3
	case picExpectICW3:
		p.cascade = v
		if p.needICW4 {
			p.initStep = picExpectICW4
		} else {
			p.finishInit()
		}
	case picExpectICW4:
		p.mode8086 = v&0x01 != 0
		p.finishInit()
	}
}

func (p *pic8259) finishInit() {
	p.initStep = picReady
	if p.base == 0 {
		// ICW2 was skipped or zero; a base inside the exception
		// range never comes from a correct handshake.
		p.undefined = true
		return
	}
	p.ready = true
}

// raise latches a request for line 0–7. Unconfigured or masked lines
// are dropped.
func (p *pic8259) raise(line uint) {
	if !p.ready || line > 7 {
		return
	}
	bit := uint8(1) << line
	if p.imr&bit != 0 {
		return
	}
	p.irr |= bit
}

// pending promotes the highest-priority latched request to in-service
// and reports its vector. Nothing is delivered while another request
// from this controller is still in service.
func (p *pic8259) pending() (uint8, bool) {
	if !p.ready || p.isr != 0 {
		return 0, false
	}
	for line := uint(0); line < 8; line++ {
		bit := uint8(1) << line
		if p.irr&bit == 0 {
			continue
		}
		p.irr &^= bit
		p.isr |= bit
		return p.base + uint8(line), true
	}
	return 0, false
}

// eoi retires the highest-priority in-service request.
func (p *pic8259) eoi() {
	p.isr &= p.isr - 1
}

// vectorFor reports the output vector a line maps to.
func (p *pic8259) vectorFor(line uint) (uint8, bool) {
	if !p.ready || line > 7 {
		return 0, false
	}
	return p.base + uint8(line), true
}
