// SPDX-FileCopyrightText: 2025 The CoreSensor Authors
// SPDX-License-Identifier: Apache-2.0

package sampler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/hwsensor-io/coresensor/internal/device"
)

func TestDetectCapabilitiesFullMachine(t *testing.T) {
	msr := device.NewFakeMSR()
	s := newTestSampler(t, skylakeProcessor(), msr, testingclock.NewFakeClock(time.Now()))
	scriptFullMachine(msr, s.topo)

	require.NoError(t, s.Init())

	caps := s.Capabilities()
	assert.True(t, caps.Has(CapCoreTemp))
	assert.True(t, caps.Has(CapPackageTemp))
	assert.True(t, caps.Has(CapVoltage))
	for d := DomainCores; d < NumEnergyDomains; d++ {
		assert.True(t, caps.Has(d.capability()), "domain %s", d)
	}
	assert.True(t, caps.EnergyAny())

	assert.Equal(t, testUnits, s.counters.energyUnits[0])
	assert.Equal(t, testUnits, s.counters.energyUnits[1])
}

func TestOldGenerationSkipsEnergyAndVoltage(t *testing.T) {
	msr := device.NewFakeMSR()
	s := newTestSampler(t, penrynProcessor(), msr, testingclock.NewFakeClock(time.Now()))
	// script everything anyway; generation gating must prevent the probes
	scriptFullMachine(msr, s.topo)

	require.NoError(t, s.Init())

	caps := s.Capabilities()
	assert.True(t, caps.Has(CapCoreTemp))
	assert.False(t, caps.Has(CapPackageTemp)) // no pts flag on this processor
	assert.False(t, caps.Has(CapVoltage))
	assert.False(t, caps.EnergyAny())

	assert.Zero(t, msr.Reads(0, device.MSRRaplPowerUnit))
	assert.Zero(t, msr.Reads(0, device.MSRPerfStatus))
}

func TestZeroEnergyProbeDisablesDomain(t *testing.T) {
	msr := device.NewFakeMSR()
	s := newTestSampler(t, skylakeProcessor(), msr, testingclock.NewFakeClock(time.Now()))
	scriptFullMachine(msr, s.topo)
	// a register that exists but reads zero means the domain is not metered
	msr.Set(0, device.MSRDramEnergyStatus, 0)

	require.NoError(t, s.Init())

	caps := s.Capabilities()
	assert.False(t, caps.Has(CapEnergyDRAM))
	assert.True(t, caps.Has(CapEnergyPackage))
	assert.True(t, caps.Has(CapEnergyCores))
}

func TestFailedEnergyProbeDisablesDomain(t *testing.T) {
	msr := device.NewFakeMSR()
	s := newTestSampler(t, skylakeProcessor(), msr, testingclock.NewFakeClock(time.Now()))
	scriptFullMachine(msr, s.topo)
	msr.Fail(0, device.MSRPP1EnergyStatus)

	require.NoError(t, s.Init())

	caps := s.Capabilities()
	assert.False(t, caps.Has(CapEnergyUncore))
	assert.True(t, caps.Has(CapEnergyPackage))
}

func TestMissingThermalFlags(t *testing.T) {
	msr := device.NewFakeMSR()
	proc := device.NewProcessor("GenuineIntel", "flagless", 6, 0x5e, 3)
	s := newTestSampler(t, proc, msr, testingclock.NewFakeClock(time.Now()))
	scriptFullMachine(msr, s.topo)

	require.NoError(t, s.Init())

	caps := s.Capabilities()
	assert.False(t, caps.Has(CapCoreTemp))
	assert.False(t, caps.Has(CapPackageTemp))
	assert.True(t, caps.Has(CapVoltage))
}

func TestTJMaxPerPackage(t *testing.T) {
	msr := device.NewFakeMSR()
	s := newTestSampler(t, skylakeProcessor(), msr, testingclock.NewFakeClock(time.Now()))
	scriptFullMachine(msr, s.topo)
	msr.Set(2, device.MSRTemperatureTarget, uint64(90)<<16)

	require.NoError(t, s.Init())

	assert.Equal(t, 100, s.counters.tjmax[0])
	assert.Equal(t, 90, s.counters.tjmax[1])
}

func TestTJMaxFallbackPerPackage(t *testing.T) {
	msr := device.NewFakeMSR()
	s := newTestSampler(t, skylakeProcessor(), msr, testingclock.NewFakeClock(time.Now()))
	scriptFullMachine(msr, s.topo)
	// package 0 reports, package 1 does not
	msr.Fail(2, device.MSRTemperatureTarget)

	require.NoError(t, s.Init())

	assert.Equal(t, 100, s.counters.tjmax[0])
	assert.Equal(t, fallbackTJMax, s.counters.tjmax[1])

	// package 1 temperatures stay on the absolute scale
	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, fallbackTJMax-41, snap.PackageTemp[1])
	assert.Equal(t, fallbackTJMax-32, snap.CoreTemp[s.topo.UniquePhysical(2)])
}

func TestTJMaxZeroReportFallsBack(t *testing.T) {
	msr := device.NewFakeMSR()
	s := newTestSampler(t, skylakeProcessor(), msr, testingclock.NewFakeClock(time.Now()))
	scriptFullMachine(msr, s.topo)
	// a readable register with zero target bits is as good as no register
	msr.Set(2, device.MSRTemperatureTarget, 0)

	require.NoError(t, s.Init())

	assert.Equal(t, 100, s.counters.tjmax[0])
	assert.Equal(t, fallbackTJMax, s.counters.tjmax[1])
}

func TestTJMaxFallback(t *testing.T) {
	msr := device.NewFakeMSR()
	s := newTestSampler(t, skylakeProcessor(), msr, testingclock.NewFakeClock(time.Now()))
	scriptFullMachine(msr, s.topo)
	msr.Fail(0, device.MSRTemperatureTarget)
	msr.Fail(2, device.MSRTemperatureTarget)

	require.NoError(t, s.Init())

	assert.Equal(t, fallbackTJMax, s.counters.tjmax[0])
	assert.Equal(t, fallbackTJMax, s.counters.tjmax[1])
}

func TestTJMaxFallbackPenrynVariant(t *testing.T) {
	msr := device.NewFakeMSR()
	s := newTestSampler(t, penrynProcessor(), msr, testingclock.NewFakeClock(time.Now()))
	scriptFullMachine(msr, s.topo)
	msr.Fail(0, device.MSRTemperatureTarget)
	msr.Fail(2, device.MSRTemperatureTarget)
	msr.Set(0, device.MSRPlatformID, uint64(1)<<28)

	require.NoError(t, s.Init())

	assert.Equal(t, fallbackTJMaxPenryn, s.counters.tjmax[0])
	assert.Equal(t, fallbackTJMaxPenryn, s.counters.tjmax[1])
}

func TestInitFailsOnUnsupportedProcessor(t *testing.T) {
	msr := device.NewFakeMSR()
	proc := device.NewProcessor("GenuineIntel", "mystery", 6, 0x42, 0)
	s := newTestSampler(t, proc, msr, testingclock.NewFakeClock(time.Now()))

	assert.Error(t, s.Init())
}
