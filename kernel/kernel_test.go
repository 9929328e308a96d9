// SPDX-License-Identifier: Unlicense OR MIT

package kernel

import (
	"bytes"
	"testing"
)

type portWrite struct {
	port  uint16
	value uint8
}

// testHardware records every privileged operation the core performs.
type testHardware struct {
	writes   []portWrite
	ports    map[uint16]uint8
	intf     bool
	esp      uint32
	desc     [6]byte
	idtLoads int
	brk      uint32
}

func newTestHardware() *testHardware {
	return &testHardware{
		ports: map[uint16]uint8{},
		esp:   0x90000,
		brk:   0x400000,
	}
}

func (h *testHardware) Outb(port uint16, value uint8) {
	h.writes = append(h.writes, portWrite{port, value})
	h.ports[port] = value
}

func (h *testHardware) Inb(port uint16) uint8 {
	return h.ports[port]
}

func (h *testHardware) LoadIDT(desc [6]byte) {
	h.desc = desc
	h.idtLoads++
}

func (h *testHardware) SetInterrupts(enabled bool) bool {
	prev := h.intf
	h.intf = enabled
	return prev
}

func (h *testHardware) StackPointer() uint32 {
	return h.esp
}

func (h *testHardware) SetStackPointer(sp uint32) {
	h.esp = sp
}

func (h *testHardware) AllocStack(size uint32) (uint32, error) {
	h.brk -= size
	return h.brk, nil
}

type testSpaces struct {
	switches []uint32
}

func (s *testSpaces) Switch(id uint32) {
	s.switches = append(s.switches, id)
}

func bootKernel(t *testing.T) (*Kernel, *testHardware, *testSpaces) {
	t.Helper()
	hw := newTestHardware()
	spaces := &testSpaces{}
	k := New(hw, spaces, &bytes.Buffer{})
	if err := k.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return k, hw, spaces
}

func TestInitializeInstallsEveryGate(t *testing.T) {
	k, hw, _ := bootKernel(t)

	for i := 0; i < idtSize; i++ {
		g := k.table[i]
		if !g.present() {
			t.Fatalf("gate %d not present after boot", i)
		}
		if got := g.handler(); got != stubAddress(vec(i)) {
			t.Errorf("gate %d handler = %#x, want %#x", i, got, stubAddress(vec(i)))
		}
	}
	if hw.idtLoads != 1 {
		t.Errorf("table descriptor loaded %d times, want exactly once", hw.idtLoads)
	}
	if !hw.intf {
		t.Error("interrupts not enabled after boot")
	}
}

func TestInitializeTwiceRejected(t *testing.T) {
	k, _, _ := bootKernel(t)
	if err := k.Initialize(); err == nil {
		t.Fatal("second Initialize succeeded")
	}
}

func TestInitializeStartsWithIdleTask(t *testing.T) {
	k, hw, _ := bootKernel(t)
	if k.Tasks() != 1 {
		t.Fatalf("live tasks = %d, want 1", k.Tasks())
	}
	if name := k.TaskName(k.CurrentTask()); name != "idle" {
		t.Fatalf("current task = %q, want idle", name)
	}
	if got := k.tasks[k.CurrentTask()].esp; got != hw.esp {
		t.Errorf("idle task esp = %#x, want boot stack pointer %#x", got, hw.esp)
	}
}

func TestExceptionReportGoesToConsole(t *testing.T) {
	hw := newTestHardware()
	var console bytes.Buffer
	k := New(hw, nil, &console)
	if err := k.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	k.Interrupt(uint8(vecGeneralProtection))
	if got, want := console.String(), "exception 13: general protection fault\n"; got != want {
		t.Fatalf("console = %q, want %q", got, want)
	}
}

func TestExceptionCallbackOverridesReport(t *testing.T) {
	k, _, _ := bootKernel(t)
	var got []uint8
	k.OnException = func(v uint8) { got = append(got, v) }

	k.Interrupt(uint8(vecPageFault))
	if len(got) != 1 || got[0] != uint8(vecPageFault) {
		t.Fatalf("exception callback got %v, want [14]", got)
	}
}

func TestKeyboardInterruptAcknowledged(t *testing.T) {
	k, hw, _ := bootKernel(t)
	keys := 0
	k.OnKey = func() { keys++ }

	before := len(hw.writes)
	k.Interrupt(uint8(vecKeyboard))
	if keys != 1 {
		t.Fatalf("keyboard callback invoked %d times, want 1", keys)
	}
	got := hw.writes[before:]
	if len(got) != 1 || got[0] != (portWrite{picMasterCmd, ocw2EOI}) {
		t.Fatalf("keyboard ack writes = %v, want single master EOI", got)
	}
}
