// SPDX-FileCopyrightText: 2025 The CoreSensor Authors
// SPDX-License-Identifier: Apache-2.0

package sampler

import (
	"math"
	"time"
)

// counterDelta returns after minus before modulo 2^64, the modulus at which
// the hardware energy counters wrap.
func counterDelta(before, after uint64) uint64 {
	if after >= before {
		return after - before
	}
	// wrapped: distance up to the wrap point, plus the part after it
	return (math.MaxUint64 - before) + after + 1
}

// recomputePower converts the energy accumulated since the last recompute
// into watts, independently for every package and enabled domain, and rolls
// each window forward. Caller must hold s.mu and gate on the minimum elapsed
// interval; dividing by a near-zero elapsed time only amplifies read noise.
func (s *Sampler) recomputePower(elapsed time.Duration) {
	secs := elapsed.Seconds()
	if secs <= 0 {
		return
	}

	c := s.counters
	for pkg := 0; pkg < s.topo.PackageCount(); pkg++ {
		for d := DomainCores; d < NumEnergyDomains; d++ {
			if !c.caps.Has(d.capability()) {
				continue
			}
			delta := counterDelta(c.energyBefore[pkg][d], c.energyAfter[pkg][d])
			c.energyBefore[pkg][d] = c.energyAfter[pkg][d]
			c.power[pkg][d] = float64(delta) * c.energyUnits[pkg] / secs
		}
	}
}

// seedEnergyBaselines rolls every enabled domain's window forward without
// computing power. Used after a scheduling gap (system sleep, badly delayed
// firing) so the next recompute measures from fresh counters instead of
// reporting a spike across the gap. Caller must hold s.mu.
func (s *Sampler) seedEnergyBaselines() {
	c := s.counters
	for pkg := 0; pkg < s.topo.PackageCount(); pkg++ {
		for d := DomainCores; d < NumEnergyDomains; d++ {
			if !c.caps.Has(d.capability()) {
				continue
			}
			c.energyBefore[pkg][d] = c.energyAfter[pkg][d]
		}
	}
}
