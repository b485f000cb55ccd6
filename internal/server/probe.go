// SPDX-FileCopyrightText: 2025 The CoreSensor Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"encoding/json"
	"net/http"

	"github.com/hwsensor-io/coresensor/internal/sampler"
	"github.com/hwsensor-io/coresensor/internal/service"
)

type probe struct {
	api       APIService
	telemetry sampler.TelemetryProvider
}

var (
	_ service.Service     = (*probe)(nil)
	_ service.Initializer = (*probe)(nil)
)

// NewProbe creates a probe service providing health check endpoints backed by
// the telemetry engine.
func NewProbe(api APIService, telemetry sampler.TelemetryProvider) *probe {
	return &probe{
		api:       api,
		telemetry: telemetry,
	}
}

func (p *probe) Name() string {
	return "probe"
}

func (p *probe) Init() error {
	return p.api.Register("/probe/", "probe", "Health check endpoints", p.handlers())
}

func (p *probe) handlers() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/probe/readyz", p.readyzHandler)
	mux.HandleFunc("/probe/livez", p.livezHandler)
	return mux
}

// readyzHandler returns 200 once the sampler can produce a snapshot.
func (p *probe) readyzHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if _, err := p.telemetry.Snapshot(); err != nil {
		p.respondWithError(w, "not ready", "sampler not operational")
		return
	}

	p.respondWithSuccess(w, "ok")
}

// livezHandler returns 200 while the sampler can produce a snapshot.
func (p *probe) livezHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if _, err := p.telemetry.Snapshot(); err != nil {
		p.respondWithError(w, "not alive", "sampler not operational")
		return
	}

	p.respondWithSuccess(w, "alive")
}

func (p *probe) respondWithSuccess(w http.ResponseWriter, status string) {
	response := map[string]string{
		"status": status,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func (p *probe) respondWithError(w http.ResponseWriter, status, reason string) {
	response := map[string]string{
		"status": status,
		"reason": reason,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusServiceUnavailable)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
