// SPDX-FileCopyrightText: 2025 The CoreSensor Authors
// SPDX-License-Identifier: Apache-2.0

package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerationOf(t *testing.T) {
	tt := []struct {
		name     string
		family   int
		model    int
		expected Generation
	}{
		{"penryn", 6, 0x17, GenerationPenryn},
		{"nehalem", 6, 0x1a, GenerationNehalem},
		{"sandybridge", 6, 0x2a, GenerationSandyBridge},
		{"haswell server", 6, 0x3f, GenerationHaswell},
		{"skylake server", 6, 0x55, GenerationSkylake},
		{"kabylake", 6, 0x9e, GenerationKabyLake},
		{"alderlake", 6, 0x97, GenerationAlderLake},
		{"raptorlake", 6, 0xb7, GenerationRaptorLake},
		{"future model treated as current", 6, 0xc6, GenerationRaptorLake},
		{"unknown family 6 model", 6, 0x42, GenerationUnknown},
		{"non-core family", 15, 0x17, GenerationUnknown},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, GenerationOf(tc.family, tc.model))
		})
	}
}

func TestGenerationOrdering(t *testing.T) {
	// capability gating compares generations, so the order must hold
	assert.True(t, GenerationPenryn < GenerationSandyBridge)
	assert.True(t, GenerationWestmere < GenerationSandyBridge)
	assert.True(t, GenerationSandyBridge < GenerationRaptorLake)
	assert.True(t, GenerationUnknown < GenerationPenryn)
}

func TestGenerationString(t *testing.T) {
	assert.Equal(t, "sandybridge", GenerationSandyBridge.String())
	assert.Equal(t, "unknown", GenerationUnknown.String())
	assert.Equal(t, "unknown", Generation(999).String())
}
