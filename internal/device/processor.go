// SPDX-FileCopyrightText: 2025 The CoreSensor Authors
// SPDX-License-Identifier: Apache-2.0

package device

import (
	"fmt"
	"strconv"

	"github.com/prometheus/procfs"
)

// Feature flag names as they appear in /proc/cpuinfo.
const (
	// FlagDigitalThermal corresponds to CPUID.06H:EAX[0], the per-core digital
	// thermal sensor.
	FlagDigitalThermal = "dts"

	// FlagPackageThermal corresponds to CPUID.06H:EAX[6], package thermal
	// management.
	FlagPackageThermal = "pts"
)

// Processor holds the identification bits of the running CPU that capability
// detection needs. Architectural features are uniform across units, so the
// first cpuinfo row is authoritative.
type Processor struct {
	VendorID  string
	ModelName string
	Family    int
	Model     int
	Stepping  int

	flags map[string]bool
}

// NewProcessor builds a Processor from its identification fields.
func NewProcessor(vendorID, modelName string, family, model, stepping int, flags ...string) *Processor {
	fm := make(map[string]bool, len(flags))
	for _, f := range flags {
		fm[f] = true
	}

	return &Processor{
		VendorID:  vendorID,
		ModelName: modelName,
		Family:    family,
		Model:     model,
		Stepping:  stepping,
		flags:     fm,
	}
}

// HasFlag reports whether the processor advertises the given cpuinfo flag.
func (p *Processor) HasFlag(name string) bool {
	return p.flags[name]
}

// Generation returns the microarchitecture generation of this processor.
func (p *Processor) Generation() Generation {
	return GenerationOf(p.Family, p.Model)
}

func (p *Processor) String() string {
	return fmt.Sprintf("%s %X:%X:%X (%s)", p.Generation(), p.Family, p.Model, p.Stepping, p.ModelName)
}

// procFS is an interface to prometheus/procfs
type procFS interface {
	CPUInfo() ([]procfs.CPUInfo, error)
}

type realProcFS struct {
	fs procfs.FS
}

func (r *realProcFS) CPUInfo() ([]procfs.CPUInfo, error) {
	return r.fs.CPUInfo()
}

func newProcFS(mountPoint string) (procFS, error) {
	fs, err := procfs.NewFS(mountPoint)
	if err != nil {
		return nil, err
	}
	return &realProcFS{fs: fs}, nil
}

// IdentifyProcessor reads processor identification from procfs.
func IdentifyProcessor(procPath string) (*Processor, error) {
	fs, err := newProcFS(procPath)
	if err != nil {
		return nil, fmt.Errorf("creating procfs failed: %w", err)
	}

	infos, err := fs.CPUInfo()
	if err != nil {
		return nil, fmt.Errorf("failed to read cpuinfo: %w", err)
	}

	return processorFromInfo(infos)
}

func processorFromInfo(infos []procfs.CPUInfo) (*Processor, error) {
	if len(infos) == 0 {
		return nil, fmt.Errorf("cpuinfo reports no processors")
	}

	first := infos[0]
	family, err := strconv.Atoi(first.CPUFamily)
	if err != nil {
		return nil, fmt.Errorf("unparsable cpu family %q: %w", first.CPUFamily, err)
	}
	model, err := strconv.Atoi(first.Model)
	if err != nil {
		return nil, fmt.Errorf("unparsable cpu model %q: %w", first.Model, err)
	}
	// stepping may be reported as "unknown" on some machines
	stepping, _ := strconv.Atoi(first.Stepping)

	flags := make(map[string]bool, len(first.Flags))
	for _, f := range first.Flags {
		flags[f] = true
	}

	return &Processor{
		VendorID:  first.VendorID,
		ModelName: first.ModelName,
		Family:    family,
		Model:     model,
		Stepping:  stepping,
		flags:     flags,
	}, nil
}
