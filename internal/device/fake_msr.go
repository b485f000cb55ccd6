// SPDX-FileCopyrightText: 2025 The CoreSensor Authors
// SPDX-License-Identifier: Apache-2.0

package device

import (
	"fmt"
	"sync"
)

// NOTE: FakeMSR is not intended for production use; it backs tests and the
// development mode of the daemon.

type fakeKey struct {
	cpu int
	msr uint32
}

// FakeMSR is a scripted RegisterReader. Registers that were never Set fail to
// read, mirroring the msr driver's behavior for unimplemented registers.
type FakeMSR struct {
	mu     sync.Mutex
	values map[fakeKey]uint64
	failed map[fakeKey]bool
	reads  map[fakeKey]int
}

var _ RegisterReader = (*FakeMSR)(nil)

func NewFakeMSR() *FakeMSR {
	return &FakeMSR{
		values: map[fakeKey]uint64{},
		failed: map[fakeKey]bool{},
		reads:  map[fakeKey]int{},
	}
}

// Set scripts the value of msr on one CPU.
func (f *FakeMSR) Set(cpu int, msr uint32, v uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[fakeKey{cpu, msr}] = v
	delete(f.failed, fakeKey{cpu, msr})
}

// SetAll scripts the value of msr on every given CPU.
func (f *FakeMSR) SetAll(cpus []int, msr uint32, v uint64) {
	for _, cpu := range cpus {
		f.Set(cpu, msr, v)
	}
}

// Fail makes subsequent reads of msr on cpu return an error.
func (f *FakeMSR) Fail(cpu int, msr uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed[fakeKey{cpu, msr}] = true
}

// Reads returns how many times msr was read on cpu.
func (f *FakeMSR) Reads(cpu int, msr uint32) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads[fakeKey{cpu, msr}]
}

func (f *FakeMSR) Read(cpu int, msr uint32) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	k := fakeKey{cpu, msr}
	f.reads[k]++

	if f.failed[k] {
		return 0, fmt.Errorf("scripted failure for msr 0x%x on cpu %d", msr, cpu)
	}
	v, ok := f.values[k]
	if !ok {
		return 0, fmt.Errorf("msr 0x%x not implemented on cpu %d", msr, cpu)
	}
	return v, nil
}

func (f *FakeMSR) Close() error {
	return nil
}
