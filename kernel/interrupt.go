// SPDX-License-Identifier: Unlicense OR MIT

package kernel

import (
	"fmt"
)

// vec identifies which condition triggered a control transfer: a CPU
// exception (0–31) or a remapped hardware line (32–47).
type vec uint8

// CPU exceptions the kernel handles explicitly. The numbering is
// fixed by the processor.
const (
	vecDivideError        vec = 0
	vecDebug              vec = 1
	vecNMI                vec = 2
	vecBreakpoint         vec = 3
	vecOverflow           vec = 4
	vecBoundRange         vec = 5
	vecInvalidOpcode      vec = 6
	vecDeviceNotAvailable vec = 7
	vecDoubleFault        vec = 8
	vecInvalidTSS         vec = 10
	vecSegmentNotPresent  vec = 11
	vecStackSegmentFault  vec = 12
	vecGeneralProtection  vec = 13
	vecPageFault          vec = 14
	vecReserved15         vec = 15
	vecFPUError           vec = 16
	vecAlignmentCheck     vec = 17
	vecMachineCheck       vec = 18
	vecSIMDException      vec = 19
	vecVirtualization     vec = 20
	vecSecurityException  vec = 30
)

// Hardware lines after the controller remap.
const (
	vecTimer    vec = irqBaseMaster + 0 // IRQ 0
	vecKeyboard vec = irqBaseMaster + 1 // IRQ 1
)

var exceptionVectors = [...]vec{
	vecDivideError, vecDebug, vecNMI, vecBreakpoint, vecOverflow,
	vecBoundRange, vecInvalidOpcode, vecDeviceNotAvailable,
	vecDoubleFault, vecInvalidTSS, vecSegmentNotPresent,
	vecStackSegmentFault, vecGeneralProtection, vecPageFault,
	vecReserved15, vecFPUError, vecAlignmentCheck, vecMachineCheck,
	vecSIMDException, vecVirtualization, vecSecurityException,
}

var exceptionNames = map[vec]string{
	vecDivideError:        "divide error",
	vecDebug:              "debug",
	vecNMI:                "non-maskable interrupt",
	vecBreakpoint:         "breakpoint",
	vecOverflow:           "overflow",
	vecBoundRange:         "bound range exceeded",
	vecInvalidOpcode:      "invalid opcode",
	vecDeviceNotAvailable: "device not available",
	vecDoubleFault:        "double fault",
	vecInvalidTSS:         "invalid TSS",
	vecSegmentNotPresent:  "segment not present",
	vecStackSegmentFault:  "stack segment fault",
	vecGeneralProtection:  "general protection fault",
	vecPageFault:          "page fault",
	vecReserved15:         "reserved",
	vecFPUError:           "x87 floating point error",
	vecAlignmentCheck:     "alignment check",
	vecMachineCheck:       "machine check",
	vecSIMDException:      "SIMD floating point exception",
	vecVirtualization:     "virtualization exception",
	vecSecurityException:  "security exception",
}

// Entry addresses of the per-vector interrupt stubs. The stubs form a
// fixed-stride table so the encoded gate offset identifies its vector.
const (
	stubBase   = 0x00100000
	stubStride = 16
)

func stubAddress(v vec) uint32 {
	return stubBase + uint32(v)*stubStride
}

// buildTable assigns every vector: the handled exceptions, the two
// serviced hardware lines, the per-controller default handlers for the
// unused lines, and a default for every remaining number. No entry is
// ever left absent, since the CPU dereferences whatever a gate holds.
func (k *Kernel) buildTable() error {
	handled := make(map[vec]bool, idtSize)

	install := func(v vec, h func()) error {
		if err := k.table.register(int(v), stubAddress(v)); err != nil {
			return err
		}
		k.handlers[v] = h
		handled[v] = true
		return nil
	}

	for _, v := range exceptionVectors {
		v := v
		if err := install(v, func() { k.exception(v) }); err != nil {
			return err
		}
	}

	if err := install(vecTimer, k.Tick); err != nil {
		return err
	}
	if err := install(vecKeyboard, k.keyboardInterrupt); err != nil {
		return err
	}

	// Unused lines of each controller share an ignore handler that
	// knows which controller to acknowledge.
	for v := irqBaseMaster + 2; v < irqBaseSlave; v++ {
		v := vec(v)
		if err := install(v, func() { k.ignoreInterrupt(v) }); err != nil {
			return err
		}
	}
	for v := irqBaseSlave; v < irqBaseSlave+8; v++ {
		v := vec(v)
		if err := install(v, func() { k.ignoreInterrupt(v) }); err != nil {
			return err
		}
	}

	// Everything else: exception numbers the kernel does not yet
	// special-case and vectors beyond the controller range. None of
	// these lines is expected to fire, but their gates must still
	// hold a valid handler.
	for v := 0; v < idtSize; v++ {
		if handled[vec(v)] {
			continue
		}
		v := vec(v)
		if err := install(v, func() { k.ignoreInterrupt(v) }); err != nil {
			return err
		}
	}
	return nil
}

// exception reports a CPU exception. The exception layer proper is a
// collaborator; absent one, the report goes to the console.
func (k *Kernel) exception(v vec) {
	if k.OnException != nil {
		k.OnException(uint8(v))
		return
	}
	fmt.Fprintf(k.console, "exception %d: %s\n", v, exceptionNames[v])
}

func (k *Kernel) keyboardInterrupt() {
	if k.OnKey != nil {
		k.OnKey()
	}
	k.ack(vecKeyboard)
}

// ignoreInterrupt absorbs an unexpected but harmless line:
// acknowledge and return.
func (k *Kernel) ignoreInterrupt(v vec) {
	k.ack(v)
}
