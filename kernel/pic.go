// SPDX-License-Identifier: Unlicense OR MIT

package kernel

// Programming of the two chained 8259 interrupt controllers. The
// initialization handshake is a strict ordered port-write protocol;
// reordering or omitting a word leaves a controller in an undefined
// state and stops interrupt delivery altogether.

// I/O ports of the master and slave controllers.
const (
	picMasterCmd  = 0x20
	picMasterData = 0x21
	picSlaveCmd   = 0xa0
	picSlaveData  = 0xa1
)

const (
	icw1Init = 0x10 // Start initialization, required.
	icw1ICW4 = 0x01 // ICW4 follows.

	icw4Mode8086 = 0x01

	// Line of the master the slave cascades into.
	cascadeLine = 2

	ocw2EOI = 0x20
)

// Output vector bases after the remap. The controllers reset to bases
// that collide with the CPU exception range 0–31.
const (
	irqBaseMaster = 32
	irqBaseSlave  = 40
)

// remapController reprograms both controllers so their output vectors
// start at irqBaseMaster and irqBaseSlave. Byte order and values are
// the hardware contract; see the constants above.
func (k *Kernel) remapController() {
	hw := k.hw

	// ICW1: enter initialization mode, cascade wiring, ICW4 needed.
	hw.Outb(picMasterCmd, icw1Init|icw1ICW4)
	hw.Outb(picSlaveCmd, icw1Init|icw1ICW4)

	// ICW2: vector bases.
	hw.Outb(picMasterData, irqBaseMaster)
	hw.Outb(picSlaveData, irqBaseSlave)

	// ICW3: the slave hangs off master line 2; the slave is told its
	// cascade identity.
	hw.Outb(picMasterData, 1<<cascadeLine)
	hw.Outb(picSlaveData, cascadeLine)

	// ICW4: 8086 mode.
	hw.Outb(picMasterData, icw4Mode8086)
	hw.Outb(picSlaveData, icw4Mode8086)

	// Unmask every line; no saved masks to restore.
	hw.Outb(picMasterData, 0)
	hw.Outb(picSlaveData, 0)
}

// ack signals end-of-interrupt for a controller-originated vector.
// Slave vectors acknowledge both controllers, the slave first. Vectors
// outside the controller range have nothing to acknowledge.
func (k *Kernel) ack(v vec) {
	switch {
	case v >= irqBaseSlave && v < irqBaseSlave+8:
		k.hw.Outb(picSlaveCmd, ocw2EOI)
		k.hw.Outb(picMasterCmd, ocw2EOI)
	case v >= irqBaseMaster && v < irqBaseSlave:
		k.hw.Outb(picMasterCmd, ocw2EOI)
	}
}
