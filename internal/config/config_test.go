// SPDX-FileCopyrightText: 2025 The CoreSensor Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "/proc", cfg.Host.ProcFS)
	assert.Equal(t, "/dev/cpu/%d/msr", cfg.Host.MSRDevice)
	assert.Equal(t, 500*time.Millisecond, cfg.Sampler.Interval.Duration())
	assert.Equal(t, time.Second, cfg.Sampler.PowerInterval.Duration())
	assert.Equal(t, 5*time.Second, cfg.Sampler.MaxDrift.Duration())
	assert.Equal(t, 2*time.Second, cfg.Sampler.Staleness.Duration())
	assert.Equal(t, []string{":9640"}, cfg.Web.ListenAddresses)
}

func TestLoadYAML(t *testing.T) {
	yaml := `
log:
  level: debug
  format: json
host:
  procfs: /host/proc
sampler:
  interval: 250ms
  powerInterval: 2s
web:
  listenAddresses:
    - ":9999"
`
	cfg, err := Load(strings.NewReader(yaml))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "/host/proc", cfg.Host.ProcFS)
	assert.Equal(t, 250*time.Millisecond, cfg.Sampler.Interval.Duration())
	assert.Equal(t, 2*time.Second, cfg.Sampler.PowerInterval.Duration())
	assert.Equal(t, []string{":9999"}, cfg.Web.ListenAddresses)

	// unset fields keep their defaults
	assert.Equal(t, 5*time.Second, cfg.Sampler.MaxDrift.Duration())
	assert.Equal(t, "/dev/cpu/%d/msr", cfg.Host.MSRDevice)
}

func TestLoadInvalidYAML(t *testing.T) {
	_, err := Load(strings.NewReader("log: ["))
	assert.Error(t, err)
}

func TestLoadInvalidDuration(t *testing.T) {
	_, err := Load(strings.NewReader("sampler:\n  interval: soon\n"))
	assert.Error(t, err)
}

func TestValidation(t *testing.T) {
	tt := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
		{"empty procfs", func(c *Config) { c.Host.ProcFS = "" }},
		{"msr template without %d", func(c *Config) { c.Host.MSRDevice = "/dev/msr0" }},
		{"zero interval", func(c *Config) { c.Sampler.Interval = 0 }},
		{"power interval below interval", func(c *Config) { c.Sampler.PowerInterval = Duration(time.Millisecond) }},
		{"drift below interval", func(c *Config) { c.Sampler.MaxDrift = Duration(time.Millisecond) }},
		{"negative staleness", func(c *Config) { c.Sampler.Staleness = Duration(-time.Second) }},
		{"unknown debug collector", func(c *Config) { c.Exporter.DebugCollectors = []string{"bpf"} }},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestFlagsOverrideFile(t *testing.T) {
	app := kingpin.New("test", "")
	updateConfig := RegisterFlags(app)

	_, err := app.Parse([]string{
		"--log.level=error",
		"--sampler.interval=100ms",
		"--sampler.max-drift=9s",
	})
	require.NoError(t, err)

	cfg, err := Load(strings.NewReader("log:\n  level: debug\n  format: json\n"))
	require.NoError(t, err)
	require.NoError(t, updateConfig(cfg))

	// flag wins over file
	assert.Equal(t, "error", cfg.Log.Level)
	// file value survives for flags left at their default
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 100*time.Millisecond, cfg.Sampler.Interval.Duration())
	assert.Equal(t, 9*time.Second, cfg.Sampler.MaxDrift.Duration())
}

func TestStringRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	s := cfg.String()

	assert.Contains(t, s, "level: info")
	assert.Contains(t, s, "interval: 500ms")
	assert.Contains(t, s, "msrDevice:")

	reloaded, err := Load(strings.NewReader(s))
	require.NoError(t, err)
	assert.Equal(t, cfg, reloaded)
}

func TestDurationMarshal(t *testing.T) {
	d := Duration(1500 * time.Millisecond)
	v, err := d.MarshalYAML()
	require.NoError(t, err)
	assert.Equal(t, "1.5s", v)
	assert.Equal(t, "1.5s", d.String())
}
