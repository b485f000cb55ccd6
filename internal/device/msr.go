// SPDX-FileCopyrightText: 2025 The CoreSensor Authors
// SPDX-License-Identifier: Apache-2.0

package device

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// RegisterReader reads 64-bit model specific registers of a given CPU.
// A failed read is not fatal to a sampling round; callers keep the
// previous value and retry on the next round.
type RegisterReader interface {
	// Read returns the raw value of msr on the given logical CPU.
	Read(cpu int, msr uint32) (uint64, error)

	// Close releases any underlying resources.
	Close() error
}

// msrReader implements RegisterReader over the Linux msr driver
// (/dev/cpu/<n>/msr). One file handle is held per logical CPU; reads use
// pread so they are safe from concurrent goroutines.
type msrReader struct {
	devicePath string // path template, e.g. "/dev/cpu/%d/msr"
	logger     *slog.Logger
	files      map[int]*os.File
}

var _ RegisterReader = (*msrReader)(nil)

// NewMSRReader creates a reader using the given device path template.
func NewMSRReader(devicePath string, logger *slog.Logger) *msrReader {
	if logger == nil {
		logger = slog.Default()
	}

	return &msrReader{
		devicePath: devicePath,
		logger:     logger.With("service", "msr-reader"),
		files:      map[int]*os.File{},
	}
}

// Available checks whether the msr interface exists on this system.
func (m *msrReader) Available() bool {
	cpuDir := filepath.Dir(filepath.Dir(m.devicePath))
	if _, err := os.Stat(cpuDir); err != nil {
		m.logger.Debug("msr not available: cpu directory missing", "dir", cpuDir)
		return false
	}

	if _, err := os.Stat(fmt.Sprintf(m.devicePath, 0)); err != nil {
		m.logger.Debug("msr not available: no device for cpu 0", "error", err)
		return false
	}

	return true
}

// Init opens an MSR device file for every given logical CPU. On failure all
// previously opened handles are closed before returning.
func (m *msrReader) Init(cpus []int) error {
	if !m.Available() {
		return fmt.Errorf("msr interface not available under %s", m.devicePath)
	}

	for _, cpu := range cpus {
		path := fmt.Sprintf(m.devicePath, cpu)
		f, err := os.OpenFile(path, os.O_RDONLY, 0)
		if err != nil {
			if closeErr := m.Close(); closeErr != nil {
				m.logger.Warn("failed to close msr files", "error", closeErr)
			}
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		m.files[cpu] = f
	}

	m.logger.Info("msr reader initialized", "cpus", len(m.files))
	return nil
}

func (m *msrReader) Read(cpu int, msr uint32) (uint64, error) {
	f, ok := m.files[cpu]
	if !ok {
		return 0, fmt.Errorf("no msr handle for cpu %d", cpu)
	}

	buf := make([]byte, 8)
	if _, err := f.ReadAt(buf, int64(msr)); err != nil {
		return 0, fmt.Errorf("failed to read msr 0x%x on cpu %d: %w", msr, cpu, err)
	}

	return binary.LittleEndian.Uint64(buf), nil
}

func (m *msrReader) Close() error {
	var lastErr error
	for cpu, f := range m.files {
		if err := f.Close(); err != nil {
			lastErr = err
			m.logger.Warn("failed to close msr file", "cpu", cpu, "error", err)
		}
	}
	m.files = map[int]*os.File{}
	return lastErr
}
