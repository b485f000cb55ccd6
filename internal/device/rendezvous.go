// SPDX-FileCopyrightText: 2025 The CoreSensor Authors
// SPDX-License-Identifier: Apache-2.0

package device

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// Rendezvous executes a routine once on every logical CPU of the system.
// Implementations keep the routine short: it must only read registers and do
// simple arithmetic.
type Rendezvous interface {
	Run(fn func(cpu int)) error
}

// threadRendezvous pins the calling OS thread to each target CPU in turn and
// runs the routine there, restoring the original affinity mask afterwards.
//
// User space cannot quiesce the other CPUs, so this is a relaxation of a true
// all-CPU rendezvous: reads within a round are sequential rather than
// simultaneous. Each register is still read by code executing on the CPU that
// owns it, and a full sweep completes in well under a millisecond.
type threadRendezvous struct {
	cpus []int
}

var _ Rendezvous = (*threadRendezvous)(nil)

// NewThreadRendezvous creates a rendezvous over the given logical CPUs.
func NewThreadRendezvous(cpus []int) *threadRendezvous {
	return &threadRendezvous{cpus: cpus}
}

func (r *threadRendezvous) Run(fn func(cpu int)) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var prev unix.CPUSet
	if err := unix.SchedGetaffinity(0, &prev); err != nil {
		return fmt.Errorf("failed to read thread affinity: %w", err)
	}
	defer func() {
		_ = unix.SchedSetaffinity(0, &prev)
	}()

	for _, cpu := range r.cpus {
		var set unix.CPUSet
		set.Zero()
		set.Set(cpu)
		if err := unix.SchedSetaffinity(0, &set); err != nil {
			return fmt.Errorf("failed to pin to cpu %d: %w", cpu, err)
		}
		fn(cpu)
	}

	return nil
}

// loopRendezvous invokes the routine for every CPU index without pinning.
// It backs tests and environments where affinity control is unavailable;
// register reads then rely on the reader to target the right CPU.
type loopRendezvous struct {
	cpus []int
}

var _ Rendezvous = (*loopRendezvous)(nil)

// NewLoopRendezvous creates a plain sequential rendezvous.
func NewLoopRendezvous(cpus []int) *loopRendezvous {
	return &loopRendezvous{cpus: cpus}
}

func (r *loopRendezvous) Run(fn func(cpu int)) error {
	for _, cpu := range r.cpus {
		fn(cpu)
	}
	return nil
}
