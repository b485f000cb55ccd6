// SPDX-FileCopyrightText: 2025 The CoreSensor Authors
// SPDX-License-Identifier: Apache-2.0

package sampler

import (
	"github.com/hwsensor-io/coresensor/internal/device"
)

// voltageScale converts MSR_PERF_STATUS bits 47:32 to volts.
const voltageScale = float64(uint64(1) << 13)

// collectRound runs the per-unit collection routine on every logical CPU.
// Caller must hold s.mu.
func (s *Sampler) collectRound() {
	if err := s.rendezvous.Run(s.updateCounters); err != nil {
		s.logger.Warn("collection round incomplete", "error", err)
	}
}

// updateCounters is the per-unit collection routine. A failed or not-valid
// register read is not an error: the previous value stays and the next round
// retries. Only the primary hyper-thread of a physical core reads the core
// temperature, and only the package leader touches package-scoped state, so
// every field has exactly one writer per round.
func (s *Sampler) updateCounters(cpu int) {
	pkg := s.topo.PackageOf(cpu)
	if pkg < 0 {
		return
	}

	c := s.counters

	if c.caps.Has(CapCoreTemp) && s.topo.SiblingIndex(cpu) == 0 {
		if raw, err := s.reader.Read(cpu, device.MSRThermStatus); err == nil && raw&device.ThermReadingValid != 0 {
			c.coreTemp[s.topo.UniquePhysical(cpu)] = int(device.Bitfield(raw, 22, 16))
		}
	}

	if !s.topo.IsPackageLeader(cpu) {
		return
	}

	if c.caps.Has(CapPackageTemp) {
		if raw, err := s.reader.Read(cpu, device.MSRPackageThermStatus); err == nil && raw&device.ThermReadingValid != 0 {
			c.pkgTemp[pkg] = int(device.Bitfield(raw, 22, 16))
		}
	}

	for d := DomainCores; d < NumEnergyDomains; d++ {
		if !c.caps.Has(d.capability()) {
			continue
		}
		raw, err := s.reader.Read(cpu, d.register())
		if err != nil {
			continue
		}
		c.energyAfter[pkg][d] = raw
		// Seed the baseline on the first reading so the first power
		// computation never spikes against an uninitialized zero.
		if c.energyBefore[pkg][d] == 0 {
			c.energyBefore[pkg][d] = raw
		}
	}

	if c.caps.Has(CapVoltage) {
		if raw, err := s.reader.Read(cpu, device.MSRPerfStatus); err == nil {
			c.voltage[pkg] = float64(device.Bitfield(raw, 47, 32)) / voltageScale
		}
	}
}
