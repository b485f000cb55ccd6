// SPDX-FileCopyrightText: 2025 The CoreSensor Authors
// SPDX-License-Identifier: Apache-2.0

package sampler

import (
	"strings"
	"time"

	"github.com/hwsensor-io/coresensor/internal/device"
	"github.com/hwsensor-io/coresensor/internal/topology"
)

// Capability is the bitmask of metrics the running hardware supports.
// Computed once at startup, read-only afterwards.
type Capability uint32

const (
	CapCoreTemp Capability = 1 << iota
	CapPackageTemp
	CapVoltage
	CapEnergyCores
	CapEnergyUncore
	CapEnergyDRAM
	CapEnergyPackage
)

// capEnergyAny covers all four energy domains.
const capEnergyAny = CapEnergyCores | CapEnergyUncore | CapEnergyDRAM | CapEnergyPackage

// Has reports whether any bit of mask is set.
func (c Capability) Has(mask Capability) bool {
	return c&mask != 0
}

// EnergyAny reports whether at least one energy domain is enabled.
func (c Capability) EnergyAny() bool {
	return c.Has(capEnergyAny)
}

func (c Capability) String() string {
	names := []struct {
		cap  Capability
		name string
	}{
		{CapCoreTemp, "core-temp"},
		{CapPackageTemp, "package-temp"},
		{CapVoltage, "voltage"},
		{CapEnergyCores, "energy-cores"},
		{CapEnergyUncore, "energy-uncore"},
		{CapEnergyDRAM, "energy-dram"},
		{CapEnergyPackage, "energy-package"},
	}

	var set []string
	for _, n := range names {
		if c.Has(n.cap) {
			set = append(set, n.name)
		}
	}
	if len(set) == 0 {
		return "none"
	}
	return strings.Join(set, ",")
}

// EnergyDomain identifies one independently metered portion of package
// energy consumption.
type EnergyDomain int

const (
	DomainCores EnergyDomain = iota
	DomainUncore
	DomainDRAM
	DomainPackage

	// NumEnergyDomains sizes per-domain arrays.
	NumEnergyDomains
)

func (d EnergyDomain) String() string {
	switch d {
	case DomainCores:
		return "cores"
	case DomainUncore:
		return "uncore"
	case DomainDRAM:
		return "dram"
	case DomainPackage:
		return "package"
	}
	return "invalid"
}

func (d EnergyDomain) capability() Capability {
	switch d {
	case DomainCores:
		return CapEnergyCores
	case DomainUncore:
		return CapEnergyUncore
	case DomainDRAM:
		return CapEnergyDRAM
	case DomainPackage:
		return CapEnergyPackage
	}
	return 0
}

func (d EnergyDomain) register() uint32 {
	switch d {
	case DomainCores:
		return device.MSRPP0EnergyStatus
	case DomainUncore:
		return device.MSRPP1EnergyStatus
	case DomainDRAM:
		return device.MSRDramEnergyStatus
	case DomainPackage:
		return device.MSRPkgEnergyStatus
	}
	return 0
}

// counters is the mutable heart of the engine. All writes happen under the
// sampler's lock; readers get a copy via snapshot.
type counters struct {
	caps Capability

	coreTemp []int // digital readout per unique physical core, offset below tjmax

	// per package
	pkgTemp     []int
	tjmax       []int
	voltage     []float64
	energyUnits []float64 // joules per counter LSB

	// per package x domain; before==0 is the "unseeded" sentinel
	energyBefore [][NumEnergyDomains]uint64
	energyAfter  [][NumEnergyDomains]uint64
	power        [][NumEnergyDomains]float64
}

func newCounters(packages, physicalCores int) *counters {
	return &counters{
		coreTemp:     make([]int, physicalCores),
		pkgTemp:      make([]int, packages),
		tjmax:        make([]int, packages),
		voltage:      make([]float64, packages),
		energyUnits:  make([]float64, packages),
		energyBefore: make([][NumEnergyDomains]uint64, packages),
		energyAfter:  make([][NumEnergyDomains]uint64, packages),
		power:        make([][NumEnergyDomains]float64, packages),
	}
}

// Snapshot is a consistent copy of the sample state for external consumers.
// Temperatures are absolute degrees Celsius (tjmax minus the readout).
type Snapshot struct {
	Timestamp    time.Time
	Capabilities Capability

	CoreTemp []int // by unique physical-core index

	PackageTemp []int
	TJMax       []int
	Voltage     []float64 // volts

	Power [][NumEnergyDomains]float64 // watts, by package x domain
}

// snapshot copies the counters. Caller must hold the sampler's lock.
func (c *counters) snapshot(topo *topology.Topology, at time.Time) *Snapshot {
	s := &Snapshot{
		Timestamp:    at,
		Capabilities: c.caps,
		CoreTemp:     make([]int, len(c.coreTemp)),
		PackageTemp:  make([]int, len(c.pkgTemp)),
		TJMax:        make([]int, len(c.tjmax)),
		Voltage:      make([]float64, len(c.voltage)),
		Power:        make([][NumEnergyDomains]float64, len(c.power)),
	}

	for core, readout := range c.coreTemp {
		s.CoreTemp[core] = c.tjmax[topo.PackageOfPhysical(core)] - readout
	}
	for pkg := range c.pkgTemp {
		s.PackageTemp[pkg] = c.tjmax[pkg] - c.pkgTemp[pkg]
		s.TJMax[pkg] = c.tjmax[pkg]
		s.Voltage[pkg] = c.voltage[pkg]
		s.Power[pkg] = c.power[pkg]
	}

	return s
}
