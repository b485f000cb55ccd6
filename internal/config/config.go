// SPDX-FileCopyrightText: 2025 The CoreSensor Authors
// SPDX-License-Identifier: Apache-2.0

// Package config holds the daemon configuration: yaml file defaults layered
// under command-line flags.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so yaml accepts human-readable values
// like "500ms" or "2s".
type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config represents the complete application configuration
type (
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	}

	// Host configures where hardware interfaces are found; overridable for
	// containers that mount the host filesystem under a prefix.
	Host struct {
		ProcFS    string `yaml:"procfs"`
		MSRDevice string `yaml:"msrDevice"`
	}

	Sampler struct {
		Interval      Duration `yaml:"interval"`
		PowerInterval Duration `yaml:"powerInterval"`
		MaxDrift      Duration `yaml:"maxDrift"`
		Staleness     Duration `yaml:"staleness"`
	}

	Web struct {
		Config          string   `yaml:"configFile"`
		ListenAddresses []string `yaml:"listenAddresses"`
	}

	Exporter struct {
		DebugCollectors []string `yaml:"debugCollectors"`
	}

	Config struct {
		Log      Log      `yaml:"log"`
		Host     Host     `yaml:"host"`
		Sampler  Sampler  `yaml:"sampler"`
		Web      Web      `yaml:"web"`
		Exporter Exporter `yaml:"exporter"`
	}
)

const (
	// Flags
	LogLevelFlag  = "log.level"
	LogFormatFlag = "log.format"

	HostProcFSFlag    = "host.procfs"
	HostMSRDeviceFlag = "host.msr-device"

	SamplerIntervalFlag      = "sampler.interval"
	SamplerPowerIntervalFlag = "sampler.power-interval"
	SamplerMaxDriftFlag      = "sampler.max-drift"
	SamplerStalenessFlag     = "sampler.staleness"

	WebConfigFlag   = "web.config-file"
	WebListenFlag   = "web.listen-address"
	DebugCollectors = "debug.collectors"
)

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		Log: Log{
			Level:  "info",
			Format: "text",
		},
		Host: Host{
			ProcFS:    "/proc",
			MSRDevice: "/dev/cpu/%d/msr",
		},
		Sampler: Sampler{
			Interval:      Duration(500 * time.Millisecond),
			PowerInterval: Duration(1 * time.Second),
			MaxDrift:      Duration(5 * time.Second),
			Staleness:     Duration(2 * time.Second),
		},
		Web: Web{
			ListenAddresses: []string{":9640"},
		},
		Exporter: Exporter{
			DebugCollectors: []string{"go"},
		},
	}
}

// Load loads configuration from an io.Reader
func Load(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.sanitize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FromFile loads configuration from a file
func FromFile(filePath string) (*Config, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return Load(file)
}

type ConfigUpdaterFn func(*Config) error

// RegisterFlags registers command-line flags with the kingpin app and returns
// a ConfigUpdaterFn that applies parsed flags over the config, so that
// explicitly set flags override config file settings.
func RegisterFlags(app *kingpin.Application) ConfigUpdaterFn {
	// track flags that were explicitly set
	flagsSet := map[string]bool{}

	app.PreAction(func(ctx *kingpin.ParseContext) error {
		// Clear the map in case this function is called multiple times
		flagsSet = map[string]bool{}

		for _, element := range ctx.Elements {
			if flag, ok := element.Clause.(*kingpin.FlagClause); ok && element.Value != nil {
				flagsSet[flag.Model().Name] = true
			}
		}
		return nil
	})

	logLevel := app.Flag(LogLevelFlag, "Logging level: debug, info, warn, error").Default("info").Enum("debug", "info", "warn", "error")
	logFormat := app.Flag(LogFormatFlag, "Logging format: text or json").Default("text").Enum("text", "json")

	procFS := app.Flag(HostProcFSFlag, "Path to procfs").Default("/proc").ExistingDir()
	msrDevice := app.Flag(HostMSRDeviceFlag, "Per-CPU msr device path template").Default("/dev/cpu/%d/msr").String()

	interval := app.Flag(SamplerIntervalFlag, "Baseline sampling interval").Default("500ms").Duration()
	powerInterval := app.Flag(SamplerPowerIntervalFlag, "Minimum time between power recomputes").Default("1s").Duration()
	maxDrift := app.Flag(SamplerMaxDriftFlag, "Sampling gap treated as clock drift").Default("5s").Duration()
	staleness := app.Flag(SamplerStalenessFlag, "Snapshot age triggering an out-of-band sample").Default("2s").Duration()

	webConfig := app.Flag(WebConfigFlag, "Web (TLS/auth) config file path").Default("").String()
	listen := app.Flag(WebListenFlag, "Web server listen addresses").Default(":9640").Strings()
	debugCollectors := app.Flag(DebugCollectors, "Debug collectors to enable (go, process)").Default("go").Strings()

	return func(cfg *Config) error {
		if flagsSet[LogLevelFlag] {
			cfg.Log.Level = *logLevel
		}
		if flagsSet[LogFormatFlag] {
			cfg.Log.Format = *logFormat
		}

		if flagsSet[HostProcFSFlag] {
			cfg.Host.ProcFS = *procFS
		}
		if flagsSet[HostMSRDeviceFlag] {
			cfg.Host.MSRDevice = *msrDevice
		}

		if flagsSet[SamplerIntervalFlag] {
			cfg.Sampler.Interval = Duration(*interval)
		}
		if flagsSet[SamplerPowerIntervalFlag] {
			cfg.Sampler.PowerInterval = Duration(*powerInterval)
		}
		if flagsSet[SamplerMaxDriftFlag] {
			cfg.Sampler.MaxDrift = Duration(*maxDrift)
		}
		if flagsSet[SamplerStalenessFlag] {
			cfg.Sampler.Staleness = Duration(*staleness)
		}

		if flagsSet[WebConfigFlag] {
			cfg.Web.Config = *webConfig
		}
		if flagsSet[WebListenFlag] {
			cfg.Web.ListenAddresses = *listen
		}
		if flagsSet[DebugCollectors] {
			cfg.Exporter.DebugCollectors = *debugCollectors
		}

		cfg.sanitize()
		return cfg.Validate()
	}
}

func (c *Config) sanitize() {
	c.Log.Level = strings.TrimSpace(c.Log.Level)
	c.Log.Format = strings.TrimSpace(c.Log.Format)
	c.Host.ProcFS = strings.TrimSpace(c.Host.ProcFS)
	c.Host.MSRDevice = strings.TrimSpace(c.Host.MSRDevice)
	c.Web.Config = strings.TrimSpace(c.Web.Config)
}

// Validate checks for configuration errors
func (c *Config) Validate() error {
	var errs []string

	{ // log level
		validLogLevels := map[string]bool{
			"debug": true,
			"info":  true,
			"warn":  true,
			"error": true,
		}
		if _, valid := validLogLevels[c.Log.Level]; !valid {
			errs = append(errs, fmt.Sprintf("invalid log level: %s", c.Log.Level))
		}
	}
	{ // log format
		validFormats := map[string]bool{
			"text": true,
			"json": true,
		}
		if _, valid := validFormats[c.Log.Format]; !valid {
			errs = append(errs, fmt.Sprintf("invalid log format: %s", c.Log.Format))
		}
	}
	{ // host paths
		if c.Host.ProcFS == "" {
			errs = append(errs, "procfs path cannot be empty")
		}
		if !strings.Contains(c.Host.MSRDevice, "%d") {
			errs = append(errs, fmt.Sprintf("msr device template must contain %%d: %s", c.Host.MSRDevice))
		}
	}
	{ // sampler timing
		if c.Sampler.Interval.Duration() <= 0 {
			errs = append(errs, fmt.Sprintf("sampling interval must be positive: %s", c.Sampler.Interval))
		}
		if c.Sampler.PowerInterval.Duration() < c.Sampler.Interval.Duration() {
			errs = append(errs, fmt.Sprintf("power interval %s cannot be shorter than the sampling interval %s",
				c.Sampler.PowerInterval, c.Sampler.Interval))
		}
		if c.Sampler.MaxDrift.Duration() <= c.Sampler.Interval.Duration() {
			errs = append(errs, fmt.Sprintf("drift threshold %s must exceed the sampling interval %s",
				c.Sampler.MaxDrift, c.Sampler.Interval))
		}
		if c.Sampler.Staleness.Duration() < 0 {
			errs = append(errs, fmt.Sprintf("staleness cannot be negative: %s", c.Sampler.Staleness))
		}
	}
	{ // debug collectors
		validCollectors := map[string]bool{
			"go":      true,
			"process": true,
		}
		for _, collector := range c.Exporter.DebugCollectors {
			if _, valid := validCollectors[collector]; !valid {
				errs = append(errs, fmt.Sprintf("invalid debug collector: %s", collector))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, ", "))
	}

	return nil
}

func (c *Config) String() string {
	bytes, err := yaml.Marshal(c)
	if err == nil {
		return string(bytes)
	}
	// yaml marshal of a plain struct should not fail; fall back to the
	// essentials if it ever does
	return c.manualString()
}

func (c *Config) manualString() string {
	cfgs := []struct {
		Name  string
		Value string
	}{
		{LogLevelFlag, c.Log.Level},
		{LogFormatFlag, c.Log.Format},
		{HostProcFSFlag, c.Host.ProcFS},
		{HostMSRDeviceFlag, c.Host.MSRDevice},
		{SamplerIntervalFlag, c.Sampler.Interval.String()},
		{SamplerPowerIntervalFlag, c.Sampler.PowerInterval.String()},
		{SamplerMaxDriftFlag, c.Sampler.MaxDrift.String()},
		{SamplerStalenessFlag, c.Sampler.Staleness.String()},
	}
	sb := strings.Builder{}

	for _, cfg := range cfgs {
		sb.WriteString(cfg.Name)
		sb.WriteString(": ")
		sb.WriteString(cfg.Value)
		sb.WriteString("\n")
	}

	return sb.String()
}
