// SPDX-FileCopyrightText: 2025 The CoreSensor Authors
// SPDX-License-Identifier: Apache-2.0

package sampler

import (
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/procfs"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/clock"

	"github.com/hwsensor-io/coresensor/internal/device"
	"github.com/hwsensor-io/coresensor/internal/topology"
)

// Layout used throughout: 2 packages x 2 physical cores x 2 hyper-threads.
// Logical cpus 0..3 are primary threads, 4..7 their siblings; package leaders
// are cpus 0 and 2.
func testTopology(t *testing.T) *topology.Topology {
	t.Helper()

	row := func(cpu uint, pkg, core string) procfs.CPUInfo {
		return procfs.CPUInfo{Processor: cpu, PhysicalID: pkg, CoreID: core}
	}
	topo, err := topology.New([]procfs.CPUInfo{
		row(0, "0", "0"),
		row(1, "0", "1"),
		row(2, "1", "0"),
		row(3, "1", "1"),
		row(4, "0", "0"),
		row(5, "0", "1"),
		row(6, "1", "0"),
		row(7, "1", "1"),
	})
	require.NoError(t, err)
	return topo
}

func skylakeProcessor() *device.Processor {
	return device.NewProcessor("GenuineIntel", "test cpu", 6, 0x5e, 3,
		device.FlagDigitalThermal, device.FlagPackageThermal)
}

func penrynProcessor() *device.Processor {
	return device.NewProcessor("GenuineIntel", "old test cpu", 6, 0x17, 6,
		device.FlagDigitalThermal)
}

// thermRaw builds a thermal status register value with the valid bit set and
// the given readout in bits 22:16.
func thermRaw(readout uint64) uint64 {
	return device.ThermReadingValid | readout<<16
}

const (
	// bits 12:8 = 16 -> 1/65536 joules per count
	raplUnitRaw = uint64(0x10) << 8
	testUnits   = 1.0 / 65536

	// bits 47:32 = 8192 -> 1.0 V
	perfStatusRaw = uint64(8192) << 32
)

// scriptFullMachine scripts every register a fully capable machine exposes.
// Core readouts are 30+cpu, package readouts 40+pkg, tjmax 100.
func scriptFullMachine(msr *device.FakeMSR, topo *topology.Topology) {
	for _, cpu := range topo.CPUs() {
		if topo.SiblingIndex(cpu) == 0 {
			msr.Set(cpu, device.MSRThermStatus, thermRaw(uint64(30+cpu)))
		}
	}

	for pkg, leader := range topo.Leaders() {
		msr.Set(leader, device.MSRPackageThermStatus, thermRaw(uint64(40+pkg)))
		msr.Set(leader, device.MSRTemperatureTarget, uint64(100)<<16)
		msr.Set(leader, device.MSRRaplPowerUnit, raplUnitRaw)
		msr.Set(leader, device.MSRPerfStatus, perfStatusRaw)

		msr.Set(leader, device.MSRPkgEnergyStatus, 1_000_000)
		msr.Set(leader, device.MSRPP0EnergyStatus, 500_000)
		msr.Set(leader, device.MSRPP1EnergyStatus, 100_000)
		msr.Set(leader, device.MSRDramEnergyStatus, 200_000)
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSampler(t *testing.T, proc *device.Processor, msr *device.FakeMSR, clk clock.Clock) *Sampler {
	t.Helper()

	topo := testTopology(t)
	return New(topo, proc, msr,
		WithLogger(discardLogger()),
		WithClock(clk),
		WithRendezvous(device.NewLoopRendezvous(topo.CPUs())),
	)
}
