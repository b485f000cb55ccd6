// SPDX-FileCopyrightText: 2025 The CoreSensor Authors
// SPDX-License-Identifier: Apache-2.0

package sampler

import (
	"log/slog"
	"time"

	"k8s.io/utils/clock"

	"github.com/hwsensor-io/coresensor/internal/device"
)

type Opts struct {
	logger        *slog.Logger
	clock         clock.Clock
	rendezvous    device.Rendezvous
	interval      time.Duration
	powerInterval time.Duration
	maxDrift      time.Duration
	maxStaleness  time.Duration
}

// DefaultOpts returns a new Opts with defaults set. The timing constants
// follow the original driver: 500ms baseline, power recomputed at most once
// per second, anything beyond 5s between firings treated as drift.
func DefaultOpts() Opts {
	return Opts{
		logger:        slog.Default(),
		clock:         clock.RealClock{},
		interval:      500 * time.Millisecond,
		powerInterval: time.Second,
		maxDrift:      5 * time.Second,
		maxStaleness:  2 * time.Second,
	}
}

// OptionFn is a function that sets one or more options in Opts
type OptionFn func(*Opts)

// WithLogger sets the logger for the Sampler
func WithLogger(logger *slog.Logger) OptionFn {
	return func(o *Opts) {
		o.logger = logger
	}
}

// WithClock sets the clock for the Sampler
func WithClock(c clock.Clock) OptionFn {
	return func(o *Opts) {
		o.clock = c
	}
}

// WithRendezvous sets the all-CPU rendezvous primitive
func WithRendezvous(r device.Rendezvous) OptionFn {
	return func(o *Opts) {
		o.rendezvous = r
	}
}

// WithInterval sets the baseline sampling interval
func WithInterval(d time.Duration) OptionFn {
	return func(o *Opts) {
		o.interval = d
	}
}

// WithPowerInterval sets the minimum elapsed time between power recomputes
func WithPowerInterval(d time.Duration) OptionFn {
	return func(o *Opts) {
		o.powerInterval = d
	}
}

// WithMaxDrift sets the firing gap beyond which drift handling kicks in
func WithMaxDrift(d time.Duration) OptionFn {
	return func(o *Opts) {
		o.maxDrift = d
	}
}

// WithMaxStaleness sets how old a snapshot may be before Snapshot() refreshes
func WithMaxStaleness(d time.Duration) OptionFn {
	return func(o *Opts) {
		o.maxStaleness = d
	}
}
