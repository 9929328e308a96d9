// SPDX-License-Identifier: Unlicense OR MIT

package kernel

import (
	"fmt"
)

// DumpTaskList writes one line per live task to the console sink,
// current task first, walking the circular list until wrap-around.
// Read-only: scheduler state is not touched.
func (k *Kernel) DumpTaskList() {
	fmt.Fprintln(k.console, "Dumping task list:")
	if k.live == 0 {
		return
	}

	// 0 is the current task, not the first one created.
	i := 0
	first := k.current
	for h := first; ; h = k.tasks[h].next {
		t := &k.tasks[h]
		fmt.Fprintf(k.console,
			"[%d] %s | prev: %d | next: %d | stack: %#x | esp: %#x | space: %#x | state: %d\n",
			i, t.name, t.prev, t.next, t.stackBase, t.esp, t.space, t.state)
		i++
		if t.next == first {
			break
		}
	}
}
