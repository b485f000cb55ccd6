// SPDX-FileCopyrightText: 2025 The CoreSensor Authors
// SPDX-License-Identifier: Apache-2.0

package sampler

// MetricKind identifies one published quantity.
type MetricKind int

const (
	MetricCoreTemperature MetricKind = iota
	MetricPackageTemperature
	MetricTJMax
	MetricPackageVoltage
	MetricPackagePower
)

// Metric describes one value a presentation layer can read out of a Snapshot.
// Core is the unique physical-core index, -1 for package-scoped metrics.
type Metric struct {
	Kind    MetricKind
	Package int
	Core    int
	Domain  EnergyDomain

	// Read extracts the metric's value from a snapshot.
	Read func(*Snapshot) float64
}

// Metrics enumerates every quantity the detected capabilities and topology
// allow, in a stable order. The result does not change after Init.
func (s *Sampler) Metrics() []Metric {
	caps := s.Capabilities()
	var metrics []Metric

	if caps.Has(CapCoreTemp) {
		for core := 0; core < s.topo.TotalPhysical(); core++ {
			core := core
			metrics = append(metrics, Metric{
				Kind:    MetricCoreTemperature,
				Package: s.topo.PackageOfPhysical(core),
				Core:    core,
				Read:    func(snap *Snapshot) float64 { return float64(snap.CoreTemp[core]) },
			})
		}
	}

	for pkg := 0; pkg < s.topo.PackageCount(); pkg++ {
		pkg := pkg

		if caps.Has(CapPackageTemp) {
			metrics = append(metrics, Metric{
				Kind:    MetricPackageTemperature,
				Package: pkg,
				Core:    -1,
				Read:    func(snap *Snapshot) float64 { return float64(snap.PackageTemp[pkg]) },
			})
		}
		if caps.Has(CapCoreTemp) || caps.Has(CapPackageTemp) {
			metrics = append(metrics, Metric{
				Kind:    MetricTJMax,
				Package: pkg,
				Core:    -1,
				Read:    func(snap *Snapshot) float64 { return float64(snap.TJMax[pkg]) },
			})
		}
		if caps.Has(CapVoltage) {
			metrics = append(metrics, Metric{
				Kind:    MetricPackageVoltage,
				Package: pkg,
				Core:    -1,
				Read:    func(snap *Snapshot) float64 { return snap.Voltage[pkg] },
			})
		}
		for d := DomainCores; d < NumEnergyDomains; d++ {
			d := d
			if !caps.Has(d.capability()) {
				continue
			}
			metrics = append(metrics, Metric{
				Kind:    MetricPackagePower,
				Package: pkg,
				Core:    -1,
				Domain:  d,
				Read:    func(snap *Snapshot) float64 { return snap.Power[pkg][d] },
			})
		}
	}

	return metrics
}
