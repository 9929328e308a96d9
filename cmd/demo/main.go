// SPDX-License-Identifier: Unlicense OR MIT

// Command demo boots the simulated machine, initializes the interrupt
// and multitasking core, spawns a couple of tasks and lets the timer
// rotate them, dumping the task list at the end.
package main

import (
	"flag"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/deboogerxyz/fs-os/kernel"
	"github.com/deboogerxyz/fs-os/machine"
)

// Synthetic entry points and address-space ids for the demo tasks.
const (
	shellEntry = 0x00500000
	clockEntry = 0x00500100
	shellSpace = 2
	clockSpace = 3
)

func main() {
	trace := flag.Bool("trace", false, "trace port traffic and interrupt delivery")
	ticks := flag.Int("ticks", 6, "number of timer ticks to run")
	flag.Parse()

	if err := run(*trace, *ticks); err != nil {
		log.Fatal(err)
	}
}

func run(trace bool, ticks int) error {
	m := machine.New()
	m.Trace = trace

	k := kernel.New(m, m, os.Stdout)
	m.Deliver = k.Interrupt

	log.Info("initializing interrupt and multitasking core")
	if err := k.Initialize(); err != nil {
		return err
	}

	for _, t := range []struct {
		name  string
		entry uint32
		space uint32
	}{
		{"shell", shellEntry, shellSpace},
		{"clock", clockEntry, clockSpace},
	} {
		log.WithField("task", t.name).Info("creating task")
		if _, err := k.CreateTask(t.name, t.entry, t.space); err != nil {
			return err
		}
	}

	// Program the interval timer for a 100 Hz tick the way the
	// timer driver would: control word, then divisor low and high
	// bytes.
	divisor := machine.PITClockHz / 100
	m.Outb(0x43, 0x36)
	m.Outb(0x40, uint8(divisor))
	m.Outb(0x40, uint8(divisor>>8))

	for i := 0; i < ticks; i++ {
		m.Advance(divisor)
		log.WithFields(log.Fields{
			"tick":    i,
			"current": k.TaskName(k.CurrentTask()),
		}).Info("timer tick")
	}

	k.DumpTaskList()
	return nil
}
