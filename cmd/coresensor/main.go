// SPDX-FileCopyrightText: 2025 The CoreSensor Authors
// SPDX-License-Identifier: Apache-2.0

// coresensor samples CPU die temperatures, core voltage and package power
// from model specific registers and exposes them over HTTP.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/jaypipes/ghw"

	"github.com/hwsensor-io/coresensor/internal/config"
	"github.com/hwsensor-io/coresensor/internal/device"
	"github.com/hwsensor-io/coresensor/internal/exporter/prometheus"
	"github.com/hwsensor-io/coresensor/internal/logger"
	"github.com/hwsensor-io/coresensor/internal/sampler"
	"github.com/hwsensor-io/coresensor/internal/server"
	"github.com/hwsensor-io/coresensor/internal/service"
	"github.com/hwsensor-io/coresensor/internal/topology"
	"github.com/hwsensor-io/coresensor/internal/version"
)

func main() {
	cfg, err := parseArgsAndConfig()
	if err != nil {
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)
	logVersionInfo(log)
	printConfigInfo(log, cfg)

	services, err := createServices(log, cfg)
	if err != nil {
		log.Error("failed to create services", "error", err)
		os.Exit(1)
	}

	if err := service.Init(log, services); err != nil {
		log.Error("initialization failed", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	if err := service.Run(ctx, log, services); err != nil {
		log.Error("coresensor terminated with an error", "error", err)
		os.Exit(1)
	}
	log.Info("Graceful shutdown completed")
}

func logVersionInfo(log *slog.Logger) {
	v := version.Info()
	log.Info("CoreSensor version information",
		"version", v.Version,
		"buildTime", v.BuildTime,
		"gitBranch", v.GitBranch,
		"gitCommit", v.GitCommit,
		"goVersion", v.GoVersion,
		"goOS", v.GoOS,
		"goArch", v.GoArch,
	)
}

func parseArgsAndConfig() (*config.Config, error) {
	const appName = "coresensor"
	app := kingpin.New(appName, "CPU hardware telemetry exporter for Prometheus.")

	configFile := app.Flag("config.file", "Path to YAML configuration file").String()
	updateConfig := config.RegisterFlags(app)
	kingpin.MustParse(app.Parse(os.Args[1:]))

	log := logger.New("info", "text", os.Stdout)
	cfg := config.DefaultConfig()
	if *configFile != "" {
		log.Info("Loading configuration file", "path", *configFile)
		loadedCfg, err := config.FromFile(*configFile)
		if err != nil {
			log.Error("Error loading config file", "error", err.Error())
			return nil, err
		}
		cfg = loadedCfg
		log.Info("Completed loading of configuration file", "path", *configFile)
	}

	// command line flags override config file settings
	if err := updateConfig(cfg); err != nil {
		log.Error("Error applying command line flags", "error", err.Error())
		return nil, err
	}

	return cfg, nil
}

func printConfigInfo(log *slog.Logger, cfg *config.Config) {
	if !log.Enabled(context.Background(), slog.LevelInfo) || cfg.Log.Format == "json" {
		return
	}

	fmt.Printf(`
Configuration
━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━
%s
━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━
`, cfg)
}

func createServices(log *slog.Logger, cfg *config.Config) ([]service.Service, error) {
	log.Debug("Creating all services")

	topo, err := topology.Discover(cfg.Host.ProcFS)
	if err != nil {
		return nil, fmt.Errorf("topology discovery failed: %w", err)
	}

	proc, err := device.IdentifyProcessor(cfg.Host.ProcFS)
	if err != nil {
		return nil, fmt.Errorf("processor identification failed: %w", err)
	}

	reader := device.NewMSRReader(cfg.Host.MSRDevice, log)
	if err := reader.Init(topo.CPUs()); err != nil {
		return nil, fmt.Errorf("msr setup failed: %w", err)
	}

	sm := sampler.New(topo, proc, reader,
		sampler.WithLogger(log),
		sampler.WithInterval(cfg.Sampler.Interval.Duration()),
		sampler.WithPowerInterval(cfg.Sampler.PowerInterval.Duration()),
		sampler.WithMaxDrift(cfg.Sampler.MaxDrift.Duration()),
		sampler.WithMaxStaleness(cfg.Sampler.Staleness.Duration()),
	)

	apiServer := server.NewAPIServer(
		server.WithLogger(log),
		server.WithListen(cfg.Web.ListenAddresses, cfg.Web.Config),
	)

	collectors, err := prometheus.CreateCollectors(sm,
		prometheus.WithLogger(log),
		prometheus.WithCoreLabelOffset(coreLabelOffset(log)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create collectors: %w", err)
	}

	promExporter := prometheus.NewExporter(sm, apiServer,
		prometheus.WithLogger(log),
		prometheus.WithDebugCollectors(cfg.Exporter.DebugCollectors),
		prometheus.WithCollectors(collectors),
	)

	return []service.Service{
		sm,
		promExporter,
		server.NewProbe(apiServer, sm),
		server.NewPprof(apiServer),
		apiServer,
		service.NewSignalHandler(syscall.SIGINT, syscall.SIGTERM),
	}, nil
}

// coreLabelOffset looks up the DMI product name and applies the per-model
// core numbering quirk. Missing DMI data just means no offset.
func coreLabelOffset(log *slog.Logger) int {
	product, err := ghw.Product()
	if err != nil {
		log.Debug("failed to read product information", "error", err)
		return 0
	}
	return prometheus.ProductCoreLabelOffset(product.Name)
}
