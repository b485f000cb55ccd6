// SPDX-FileCopyrightText: 2025 The CoreSensor Authors
// SPDX-License-Identifier: Apache-2.0

package sampler

import (
	"github.com/hwsensor-io/coresensor/internal/device"
)

// Fallback tjmax values for hardware that does not report a temperature
// target. 105 applies to one documented Penryn variant identified by a
// platform-id bit.
const (
	fallbackTJMax       = 100
	fallbackTJMaxPenryn = 105

	penrynHighTJMaxBit = uint64(1) << 28
)

// detectCapabilities probes which metrics the hardware supports and fills in
// the per-package energy scale factors. Runs once during Init, with s.mu held.
func (s *Sampler) detectCapabilities() {
	c := s.counters
	gen := s.proc.Generation()

	var caps Capability
	if s.proc.HasFlag(device.FlagDigitalThermal) {
		caps |= CapCoreTemp
	}
	if s.proc.HasFlag(device.FlagPackageThermal) {
		caps |= CapPackageTemp
	}

	// RAPL and voltage reporting exist since SandyBridge, but there is no
	// architectural support query: probe by reading, the way the Linux kernel
	// does, and trust the result for the rest of the run.
	if gen >= device.GenerationSandyBridge {
		for pkg, leader := range s.topo.Leaders() {
			raw, err := s.reader.Read(leader, device.MSRRaplPowerUnit)
			if err != nil {
				continue
			}
			if unit := device.Bitfield(raw, 12, 8); unit > 0 {
				c.energyUnits[pkg] = 1.0 / float64(uint64(1)<<unit)
			}
		}

		if c.energyUnits[0] > 0 {
			leader := s.topo.Leader(0)
			for d := DomainCores; d < NumEnergyDomains; d++ {
				raw, err := s.reader.Read(leader, d.register())
				if err != nil || raw == 0 {
					continue
				}
				caps |= d.capability()
			}
		}

		if _, err := s.reader.Read(s.topo.Leader(0), device.MSRPerfStatus); err == nil {
			caps |= CapVoltage
		}
	}

	c.caps = caps
}

// readTJMax discovers the per-package maximum junction temperature. Every
// package whose read fails or reports zero gets the failsafe default; tjmax
// is never left at zero. Runs once during Init, with s.mu held.
func (s *Sampler) readTJMax() {
	c := s.counters

	for pkg, leader := range s.topo.Leaders() {
		if raw, err := s.reader.Read(leader, device.MSRTemperatureTarget); err == nil {
			c.tjmax[pkg] = int(device.Bitfield(raw, 23, 16))
		}
		if c.tjmax[pkg] == 0 {
			s.logger.Warn("package reports no temperature target, using fallback tjmax", "package", pkg)
			c.tjmax[pkg] = s.fallbackTarget()
		}
	}
}

// fallbackTarget returns the failsafe temperature target. One documented
// Penryn variant runs at 105, identified by a platform-id bit.
func (s *Sampler) fallbackTarget() int {
	if s.proc.Generation() == device.GenerationPenryn {
		if raw, err := s.reader.Read(s.topo.Leader(0), device.MSRPlatformID); err == nil && raw&penrynHighTJMaxBit != 0 {
			return fallbackTJMaxPenryn
		}
	}
	return fallbackTJMax
}
