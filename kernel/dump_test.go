// SPDX-License-Identifier: Unlicense OR MIT

package kernel

import (
	"bytes"
	"strings"
	"testing"
)

func dumpLines(k *Kernel, console *bytes.Buffer) []string {
	console.Reset()
	k.DumpTaskList()
	out := strings.TrimRight(console.String(), "\n")
	return strings.Split(out, "\n")
}

func TestDumpOneLinePerTaskCurrentFirst(t *testing.T) {
	hw := newTestHardware()
	var console bytes.Buffer
	k := New(hw, nil, &console)
	if err := k.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	mustCreate(t, k, "a", 2)
	mustCreate(t, k, "b", 3)

	lines := dumpLines(k, &console)
	if len(lines) != 1+k.Tasks() {
		t.Fatalf("dump produced %d lines, want header plus %d tasks:\n%s",
			len(lines), k.Tasks(), strings.Join(lines, "\n"))
	}
	if lines[0] != "Dumping task list:" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "[0] idle ") {
		t.Errorf("first entry %q does not list the current task", lines[1])
	}

	// After a tick the new current task leads, insertion order
	// notwithstanding.
	k.Tick()
	cur := k.TaskName(k.CurrentTask())
	lines = dumpLines(k, &console)
	if !strings.Contains(lines[1], "[0] "+cur+" ") {
		t.Errorf("after tick first entry %q, want task %q", lines[1], cur)
	}
	if len(lines) != 1+k.Tasks() {
		t.Errorf("dump after tick produced %d lines, want %d", len(lines), 1+k.Tasks())
	}
}

func TestDumpDoesNotMutateSchedulerState(t *testing.T) {
	hw := newTestHardware()
	var console bytes.Buffer
	k := New(hw, nil, &console)
	if err := k.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	mustCreate(t, k, "a", 2)

	cur := k.CurrentTask()
	order := walkNext(k)
	k.DumpTaskList()
	if k.CurrentTask() != cur {
		t.Error("dump moved the scheduler cursor")
	}
	if got := walkNext(k); !equalStrings(got, order) {
		t.Errorf("dump changed list order: %v, want %v", got, order)
	}
}
