// SPDX-FileCopyrightText: 2025 The CoreSensor Authors
// SPDX-License-Identifier: Apache-2.0

// Package sampler implements the synchronized telemetry engine: capability
// detection at startup, one collection round across every logical CPU per
// timer firing, wraparound-safe power accumulation, and the adaptive
// scheduler driving it all.
package sampler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"k8s.io/utils/clock"

	"github.com/hwsensor-io/coresensor/internal/device"
	"github.com/hwsensor-io/coresensor/internal/service"
	"github.com/hwsensor-io/coresensor/internal/topology"
)

const (
	// startupGrace multiplies the baseline interval for the very first firing,
	// leaving the rest of startup in peace.
	startupGrace = 2

	// hurryDivisor shortens the next delay on a hurry request.
	hurryDivisor = 10
)

// TelemetryProvider is the read surface exposed to presentation layers.
type TelemetryProvider interface {
	// Snapshot returns the current sample state.
	Snapshot() (*Snapshot, error)

	// Capabilities returns the startup-detected capability bitmask.
	Capabilities() Capability

	// Metrics enumerates the published quantities.
	Metrics() []Metric

	// DataChannel signals when new data is available.
	DataChannel() <-chan struct{}

	// Hurry asks for the next collection round to come sooner.
	Hurry()
}

// Service is the full sampling service.
type Service interface {
	service.Service
	TelemetryProvider
}

// Sampler owns the sample state and the collection schedule.
type Sampler struct {
	logger     *slog.Logger
	topo       *topology.Topology
	proc       *device.Processor
	reader     device.RegisterReader
	rendezvous device.Rendezvous
	clock      clock.Clock

	interval      time.Duration
	powerInterval time.Duration
	maxDrift      time.Duration
	maxStaleness  time.Duration

	// mu guards the counters and the round/recompute timestamps. The firing
	// path holds it for the whole round-plus-recompute sequence.
	mu        sync.Mutex
	counters  *counters
	lastRound time.Time
	lastPower time.Time

	// armMu guards the hurry/armed handshake with the scheduler loop.
	armMu sync.Mutex
	armed bool
	hurry bool

	refreshGroup singleflight.Group
	dataCh       chan struct{}
}

var _ Service = (*Sampler)(nil)

// New creates a Sampler over the given topology, processor identification and
// register reader. The reader is owned by the sampler from here on and closed
// on shutdown.
func New(topo *topology.Topology, proc *device.Processor, reader device.RegisterReader, applyOpts ...OptionFn) *Sampler {
	opts := DefaultOpts()
	for _, apply := range applyOpts {
		apply(&opts)
	}

	rendezvous := opts.rendezvous
	if rendezvous == nil {
		rendezvous = device.NewThreadRendezvous(topo.CPUs())
	}

	return &Sampler{
		logger:        opts.logger.With("service", "sampler"),
		topo:          topo,
		proc:          proc,
		reader:        reader,
		rendezvous:    rendezvous,
		clock:         opts.clock,
		interval:      opts.interval,
		powerInterval: opts.powerInterval,
		maxDrift:      opts.maxDrift,
		maxStaleness:  opts.maxStaleness,
		counters:      newCounters(topo.PackageCount(), topo.TotalPhysical()),
		dataCh:        make(chan struct{}, 1),
	}
}

func (s *Sampler) Name() string {
	return "sampler"
}

// Init detects capabilities, discovers tjmax and energy units, and runs one
// seeding round so consumers see values before the first timer firing.
// Fails on processors older than the minimum supported generation.
func (s *Sampler) Init() error {
	gen := s.proc.Generation()
	if gen < device.GenerationPenryn {
		return fmt.Errorf("unsupported processor: %s", s.proc)
	}

	s.mu.Lock()
	s.detectCapabilities()
	s.readTJMax()
	s.collectRound()
	now := s.clock.Now()
	s.lastRound = now
	s.lastPower = now
	caps := s.counters.caps
	tjmax := s.counters.tjmax[0]
	s.mu.Unlock()

	if caps == 0 {
		s.logger.Warn("no supported telemetry on this hardware")
	}
	s.logger.Info("sampler initialized",
		"processor", s.proc.String(),
		"topology", s.topo.String(),
		"capabilities", caps.String(),
		"tjmax", tjmax,
	)

	s.signalNewData()
	return nil
}

// Run drives the collection schedule. The loop always re-arms after each
// firing at the baseline interval; a pending hurry request shortens the delay
// to a tenth of it.
func (s *Sampler) Run(ctx context.Context) error {
	s.logger.Info("sampler is running")

	delay := s.nextDelay(startupGrace * s.interval)
	for {
		timer := s.clock.After(delay)
		select {
		case <-timer:
			s.fire()
			delay = s.nextDelay(s.interval)

		case <-ctx.Done():
			s.logger.Info("sampler terminated")
			return nil
		}
	}
}

func (s *Sampler) Shutdown() error {
	s.logger.Info("shutting down sampler")
	return s.reader.Close()
}

// Hurry asks for the next collection round to come sooner than the baseline
// cadence. A request made while a firing is already armed coalesces into it;
// otherwise the next firing is armed at a tenth of the baseline interval.
func (s *Sampler) Hurry() {
	s.armMu.Lock()
	defer s.armMu.Unlock()
	if s.armed {
		return
	}
	s.hurry = true
}

// nextDelay arms the next firing, honoring a pending hurry request.
func (s *Sampler) nextDelay(baseline time.Duration) time.Duration {
	s.armMu.Lock()
	defer s.armMu.Unlock()

	d := baseline
	if s.hurry {
		d = s.interval / hurryDivisor
		s.hurry = false
	}
	s.armed = true
	return d
}

// fire processes one timer firing: it releases the armed state so hurry
// requests target the following firing, then samples. Out-of-band refreshes
// call sample directly and leave the armed state alone.
func (s *Sampler) fire() {
	s.armMu.Lock()
	s.armed = false
	s.armMu.Unlock()

	s.sample()
}

// sample runs a full collection round, then a power recompute when enough
// time has passed since the previous one. A round gap beyond maxDrift
// (system sleep, stalled scheduling) reseeds the energy baselines instead,
// so no spike is reported across the gap.
func (s *Sampler) sample() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.counters.caps == 0 {
		return
	}

	now := s.clock.Now()
	timerDelta := now.Sub(s.lastRound)
	energyDelta := now.Sub(s.lastPower)
	s.lastRound = now

	s.collectRound()

	if s.maxDrift > 0 && timerDelta > s.maxDrift {
		s.logger.Warn("firing gap exceeded drift threshold, reseeding energy baselines",
			"gap", timerDelta, "threshold", s.maxDrift)
		s.seedEnergyBaselines()
		s.lastPower = now
	} else if energyDelta >= s.powerInterval && s.counters.caps.EnergyAny() {
		s.lastPower = now
		s.recomputePower(energyDelta)
	}

	s.signalNewData()
}

func (s *Sampler) signalNewData() {
	select {
	case s.dataCh <- struct{}{}:
	default:
	}
}

func (s *Sampler) DataChannel() <-chan struct{} {
	return s.dataCh
}

// Capabilities returns the detected capability bitmask. Read-only after Init.
func (s *Sampler) Capabilities() Capability {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters.caps
}

// Snapshot returns a copy of the current sample state, triggering an
// out-of-band collection round first when the state is too stale.
func (s *Sampler) Snapshot() (*Snapshot, error) {
	if err := s.ensureFresh(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters.snapshot(s.topo, s.lastRound), nil
}

// ensureFresh refreshes the sample state when it is older than maxStaleness,
// coalescing concurrent refreshes into one round.
func (s *Sampler) ensureFresh() error {
	if s.isFresh() {
		return nil
	}

	_, err, _ := s.refreshGroup.Do("refresh", func() (any, error) {
		// double-check after winning the flight; a concurrent caller may have
		// refreshed while this one waited
		if s.isFresh() {
			return nil, nil
		}
		s.sample()
		return nil, nil
	})

	return err
}

func (s *Sampler) isFresh() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastRound.IsZero() {
		return false
	}
	return s.clock.Now().Sub(s.lastRound) <= s.maxStaleness
}
