// SPDX-FileCopyrightText: 2025 The CoreSensor Authors
// SPDX-License-Identifier: Apache-2.0

// Package service defines the lifecycle contracts the daemon's components
// implement, and runs them as a group.
package service

import "context"

// Service is the minimal contract every component implements.
type Service interface {
	// Name identifies the service in logs.
	Name() string
}

// Initializer is implemented by services needing one-time setup before Run.
type Initializer interface {
	Service
	Init() error
}

// Runner is implemented by services with a blocking main loop.
type Runner interface {
	Service
	// Run blocks until ctx is canceled or the service fails.
	Run(ctx context.Context) error
}

// Shutdowner is implemented by services holding resources to release.
type Shutdowner interface {
	Service
	Shutdown() error
}
