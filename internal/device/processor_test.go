// SPDX-FileCopyrightText: 2025 The CoreSensor Authors
// SPDX-License-Identifier: Apache-2.0

package device

import (
	"testing"

	"github.com/prometheus/procfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cpuInfoRow(cpu uint, family, model string, flags ...string) procfs.CPUInfo {
	return procfs.CPUInfo{
		Processor: cpu,
		VendorID:  "GenuineIntel",
		CPUFamily: family,
		Model:     model,
		ModelName: "Intel(R) Core(TM) i7-6700K CPU @ 4.00GHz",
		Stepping:  "3",
		Flags:     flags,
	}
}

func TestProcessorFromInfo(t *testing.T) {
	infos := []procfs.CPUInfo{
		cpuInfoRow(0, "6", "94", "fpu", "dts", "pts"),
		cpuInfoRow(1, "6", "94", "fpu", "dts", "pts"),
	}

	proc, err := processorFromInfo(infos)
	require.NoError(t, err)

	assert.Equal(t, "GenuineIntel", proc.VendorID)
	assert.Equal(t, 6, proc.Family)
	assert.Equal(t, 94, proc.Model) // 0x5e -> skylake
	assert.Equal(t, GenerationSkylake, proc.Generation())
	assert.True(t, proc.HasFlag(FlagDigitalThermal))
	assert.True(t, proc.HasFlag(FlagPackageThermal))
	assert.False(t, proc.HasFlag("avx512f"))
}

func TestProcessorFromInfoUnknownStepping(t *testing.T) {
	row := cpuInfoRow(0, "6", "94")
	row.Stepping = "unknown"

	proc, err := processorFromInfo([]procfs.CPUInfo{row})
	require.NoError(t, err)
	assert.Equal(t, 0, proc.Stepping)
}

func TestProcessorFromInfoErrors(t *testing.T) {
	_, err := processorFromInfo(nil)
	assert.Error(t, err)

	_, err = processorFromInfo([]procfs.CPUInfo{cpuInfoRow(0, "bogus", "94")})
	assert.Error(t, err)

	_, err = processorFromInfo([]procfs.CPUInfo{cpuInfoRow(0, "6", "bogus")})
	assert.Error(t, err)
}
