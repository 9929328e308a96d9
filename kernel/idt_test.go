// SPDX-License-Identifier: Unlicense OR MIT

package kernel

import (
	"testing"
)

func TestGateEncodingRoundTrip(t *testing.T) {
	addrs := []uint32{0, 1, 0xffff, 0x10000, 0x00100000, 0xdeadbeef, 0xffffffff}
	for _, addr := range addrs {
		if got := encodeGate(addr).handler(); got != addr {
			t.Errorf("decode(encode(%#x)) = %#x", addr, got)
		}
	}

	var table idt
	for i := 0; i < idtSize; i++ {
		addr := 0x00100000 + uint32(i)*16
		if err := table.register(i, addr); err != nil {
			t.Fatalf("register(%d): %v", i, err)
		}
		if got := table[i].handler(); got != addr {
			t.Errorf("gate %d decodes to %#x, want %#x", i, got, addr)
		}
	}
}

func TestGateFixedFields(t *testing.T) {
	g := encodeGate(0x12345678)
	if got := g.selector(); got != gateKernelCS {
		t.Errorf("selector = %#x, want %#x", got, gateKernelCS)
	}
	if got := g.attributes(); got != 0x8e {
		t.Errorf("attributes = %#x, want 0x8e (present, DPL 0, 32-bit interrupt gate)", got)
	}
	if g[4] != 0 {
		t.Errorf("reserved byte = %#x, want 0", g[4])
	}
	// Split offset halves, little endian.
	if g[0] != 0x78 || g[1] != 0x56 || g[6] != 0x34 || g[7] != 0x12 {
		t.Errorf("offset bytes = % x", g)
	}
}

func TestRegisterVectorOutOfRange(t *testing.T) {
	var table idt
	for i := 0; i < idtSize; i++ {
		if err := table.register(i, uint32(i)); err != nil {
			t.Fatalf("register(%d): %v", i, err)
		}
	}
	snapshot := table

	for _, idx := range []int{-1, idtSize, idtSize + 44, 1 << 16} {
		if err := table.register(idx, 0xcafe); err == nil {
			t.Errorf("register(%d) succeeded, want fatal configuration error", idx)
		}
	}
	if table != snapshot {
		t.Error("out-of-range register mutated the table")
	}
}

func TestTableDescriptor(t *testing.T) {
	var table idt
	d := table.descriptor(idtBase)
	if limit := uint16(d[0]) | uint16(d[1])<<8; limit != idtSize*8-1 {
		t.Errorf("limit = %d, want %d", limit, idtSize*8-1)
	}
	base := uint32(d[2]) | uint32(d[3])<<8 | uint32(d[4])<<16 | uint32(d[5])<<24
	if base != idtBase {
		t.Errorf("base = %#x, want %#x", base, idtBase)
	}
}
