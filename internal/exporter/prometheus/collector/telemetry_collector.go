// SPDX-FileCopyrightText: 2025 The CoreSensor Authors
// SPDX-License-Identifier: Apache-2.0

package collector

import (
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hwsensor-io/coresensor/internal/sampler"
)

// TelemetryCollector exposes the sampled hardware telemetry. All values for
// one scrape come from a single snapshot, so temperatures, voltage and power
// are mutually consistent.
type TelemetryCollector struct {
	telemetry sampler.TelemetryProvider
	logger    *slog.Logger

	// coreLabelOffset shifts core label values; some platforms number their
	// core sensors from 1
	coreLabelOffset int

	mutex sync.RWMutex
	ready bool

	coreTempDesc *prometheus.Desc
	pkgTempDesc  *prometheus.Desc
	tjmaxDesc    *prometheus.Desc
	voltageDesc  *prometheus.Desc
	powerDesc    *prometheus.Desc
}

// NewTelemetryCollector creates a collector reading from the given provider.
func NewTelemetryCollector(t sampler.TelemetryProvider, logger *slog.Logger, coreLabelOffset int) *TelemetryCollector {
	const (
		pkgLabel  = "package"
		coreLabel = "core"
	)

	c := &TelemetryCollector{
		telemetry:       t,
		logger:          logger.With("collector", "telemetry"),
		coreLabelOffset: coreLabelOffset,

		coreTempDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "core", "temperature_celsius"),
			"Die temperature of a physical core in degrees Celsius",
			[]string{pkgLabel, coreLabel}, nil),
		pkgTempDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "package", "temperature_celsius"),
			"Die temperature of a CPU package in degrees Celsius",
			[]string{pkgLabel}, nil),
		tjmaxDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "package", "tjmax_celsius"),
			"Maximum junction temperature of a CPU package in degrees Celsius",
			[]string{pkgLabel}, nil),
		voltageDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "package", "voltage_volts"),
			"Core voltage of a CPU package in volts",
			[]string{pkgLabel}, nil),
		powerDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "package", "power_watts"),
			"Power consumption of a CPU package energy domain in watts",
			[]string{pkgLabel, "domain"}, nil),
	}

	go c.waitForData()

	return c
}

func (c *TelemetryCollector) waitForData() {
	<-c.telemetry.DataChannel()
	c.mutex.Lock()
	c.ready = true
	c.mutex.Unlock()
}

// Describe implements the prometheus.Collector interface
func (c *TelemetryCollector) Describe(ch chan<- *prometheus.Desc) {
	caps := c.telemetry.Capabilities()

	if caps.Has(sampler.CapCoreTemp) {
		ch <- c.coreTempDesc
	}
	if caps.Has(sampler.CapPackageTemp) {
		ch <- c.pkgTempDesc
	}
	if caps.Has(sampler.CapCoreTemp) || caps.Has(sampler.CapPackageTemp) {
		ch <- c.tjmaxDesc
	}
	if caps.Has(sampler.CapVoltage) {
		ch <- c.voltageDesc
	}
	if caps.EnergyAny() {
		ch <- c.powerDesc
	}
}

func (c *TelemetryCollector) isReady() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.ready
}

// Collect implements the prometheus.Collector interface
func (c *TelemetryCollector) Collect(ch chan<- prometheus.Metric) {
	if !c.isReady() {
		c.logger.Debug("Collect called before sampler produced data")
		return
	}

	started := time.Now()
	defer func() {
		c.logger.Debug("Collected telemetry", "duration", time.Since(started))
	}()

	// scrapes double as activity: pull the next round forward
	c.telemetry.Hurry()

	snapshot, err := c.telemetry.Snapshot()
	if err != nil {
		c.logger.Error("Failed to collect telemetry", "error", err)
		return
	}

	for _, m := range c.telemetry.Metrics() {
		ch <- prometheus.MustNewConstMetric(
			c.descFor(m.Kind),
			prometheus.GaugeValue,
			m.Read(snapshot),
			c.labelsFor(m)...,
		)
	}
}

func (c *TelemetryCollector) descFor(kind sampler.MetricKind) *prometheus.Desc {
	switch kind {
	case sampler.MetricCoreTemperature:
		return c.coreTempDesc
	case sampler.MetricPackageTemperature:
		return c.pkgTempDesc
	case sampler.MetricTJMax:
		return c.tjmaxDesc
	case sampler.MetricPackageVoltage:
		return c.voltageDesc
	default:
		return c.powerDesc
	}
}

func (c *TelemetryCollector) labelsFor(m sampler.Metric) []string {
	pkg := strconv.Itoa(m.Package)
	switch m.Kind {
	case sampler.MetricCoreTemperature:
		return []string{pkg, strconv.Itoa(m.Core + c.coreLabelOffset)}
	case sampler.MetricPackagePower:
		return []string{pkg, m.Domain.String()}
	default:
		return []string{pkg}
	}
}
