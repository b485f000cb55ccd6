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

func TestMetricsEnumeration(t *testing.T) {
	msr := device.NewFakeMSR()
	s := newTestSampler(t, skylakeProcessor(), msr, testingclock.NewFakeClock(time.Now()))
	scriptFullMachine(msr, s.topo)
	require.NoError(t, s.Init())

	metrics := s.Metrics()

	// 4 core temps + per package: temp, tjmax, voltage and 4 power domains
	assert.Len(t, metrics, 4+2*7)

	counts := map[MetricKind]int{}
	for _, m := range metrics {
		counts[m.Kind]++

		if m.Kind == MetricCoreTemperature {
			assert.GreaterOrEqual(t, m.Core, 0)
		} else {
			assert.Equal(t, -1, m.Core)
		}
	}
	assert.Equal(t, 4, counts[MetricCoreTemperature])
	assert.Equal(t, 2, counts[MetricPackageTemperature])
	assert.Equal(t, 2, counts[MetricTJMax])
	assert.Equal(t, 2, counts[MetricPackageVoltage])
	assert.Equal(t, 8, counts[MetricPackagePower])
}

func TestMetricsReadFromSnapshot(t *testing.T) {
	msr := device.NewFakeMSR()
	s := newTestSampler(t, skylakeProcessor(), msr, testingclock.NewFakeClock(time.Now()))
	scriptFullMachine(msr, s.topo)
	require.NoError(t, s.Init())

	snap, err := s.Snapshot()
	require.NoError(t, err)

	for _, m := range s.Metrics() {
		v := m.Read(snap)
		switch m.Kind {
		case MetricCoreTemperature:
			assert.Equal(t, float64(snap.CoreTemp[m.Core]), v)
			assert.Equal(t, s.topo.PackageOfPhysical(m.Core), m.Package)
		case MetricPackageTemperature:
			assert.Equal(t, float64(snap.PackageTemp[m.Package]), v)
		case MetricTJMax:
			assert.Equal(t, 100.0, v)
		case MetricPackageVoltage:
			assert.InDelta(t, 1.0, v, 1e-9)
		case MetricPackagePower:
			assert.Zero(t, v)
		}
	}
}

func TestMetricsFollowCapabilities(t *testing.T) {
	msr := device.NewFakeMSR()
	s := newTestSampler(t, penrynProcessor(), msr, testingclock.NewFakeClock(time.Now()))
	scriptFullMachine(msr, s.topo)
	require.NoError(t, s.Init())

	// dts only: core temps plus tjmax, nothing package-scoped beyond that
	for _, m := range s.Metrics() {
		assert.Contains(t, []MetricKind{MetricCoreTemperature, MetricTJMax}, m.Kind)
	}
}
