// SPDX-License-Identifier: Unlicense OR MIT

package machine

// Model of channel 0 of the programmable interval timer: a divisor
// latch programmed low byte then high byte, ticking once per divisor
// input cycles.

const (
	pitChannel0 = 0x40
	pitControl  = 0x43

	// Channel 0, access low/high, mode 3 (square wave).
	pitCmdChannel0 = 0x36
)

// Input clock of the timer in Hz.
const PITClockHz = 1193182

type pit struct {
	divisor    uint32
	latch      uint16
	expectHi   bool
	accum      int
	programmed bool
}

func (t *pit) write(port uint16, v uint8) {
	switch port {
	case pitControl:
		if v == pitCmdChannel0 {
			t.expectHi = false
			t.programmed = false
		}
	case pitChannel0:
		if !t.expectHi {
			t.latch = uint16(v)
			t.expectHi = true
			return
		}
		t.latch |= uint16(v) << 8
		t.expectHi = false
		t.divisor = uint32(t.latch)
		if t.divisor == 0 {
			// A zero divisor means 65536 on the real part.
			t.divisor = 0x10000
		}
		t.accum = 0
		t.programmed = true
	}
}

// advance consumes input clock cycles and reports how many output
// ticks fired.
func (t *pit) advance(cycles int) int {
	if !t.programmed {
		return 0
	}
	t.accum += cycles
	fired := t.accum / int(t.divisor)
	t.accum %= int(t.divisor)
	return fired
}
