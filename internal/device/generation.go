// SPDX-FileCopyrightText: 2025 The CoreSensor Authors
// SPDX-License-Identifier: Apache-2.0

package device

// Generation identifies an Intel Core microarchitecture generation. It gates
// RAPL and voltage probing: there is no architectural "is RAPL supported"
// query, so support is assumed on SandyBridge and later, matching what the
// Linux kernel and every monitoring project hardcode.
type Generation int

const (
	GenerationUnknown Generation = iota
	GenerationPenryn
	GenerationNehalem
	GenerationWestmere
	GenerationSandyBridge
	GenerationIvyBridge
	GenerationHaswell
	GenerationBroadwell
	GenerationSkylake
	GenerationKabyLake
	GenerationCometLake
	GenerationIceLake
	GenerationTigerLake
	GenerationRocketLake
	GenerationAlderLake
	GenerationRaptorLake
)

func (g Generation) String() string {
	names := map[Generation]string{
		GenerationUnknown:     "unknown",
		GenerationPenryn:      "penryn",
		GenerationNehalem:     "nehalem",
		GenerationWestmere:    "westmere",
		GenerationSandyBridge: "sandybridge",
		GenerationIvyBridge:   "ivybridge",
		GenerationHaswell:     "haswell",
		GenerationBroadwell:   "broadwell",
		GenerationSkylake:     "skylake",
		GenerationKabyLake:    "kabylake",
		GenerationCometLake:   "cometlake",
		GenerationIceLake:     "icelake",
		GenerationTigerLake:   "tigerlake",
		GenerationRocketLake:  "rocketlake",
		GenerationAlderLake:   "alderlake",
		GenerationRaptorLake:  "raptorlake",
	}
	if n, ok := names[g]; ok {
		return n
	}
	return "unknown"
}

// generationByModel maps family 6 model numbers to generations.
var generationByModel = map[int]Generation{
	0x17: GenerationPenryn,
	0x1d: GenerationPenryn,

	0x1a: GenerationNehalem,
	0x1e: GenerationNehalem,
	0x1f: GenerationNehalem,
	0x2e: GenerationNehalem,

	0x25: GenerationWestmere,
	0x2c: GenerationWestmere,
	0x2f: GenerationWestmere,

	0x2a: GenerationSandyBridge,
	0x2d: GenerationSandyBridge,

	0x3a: GenerationIvyBridge,
	0x3e: GenerationIvyBridge,

	0x3c: GenerationHaswell,
	0x3f: GenerationHaswell,
	0x45: GenerationHaswell,
	0x46: GenerationHaswell,

	0x3d: GenerationBroadwell,
	0x47: GenerationBroadwell,
	0x4f: GenerationBroadwell,
	0x56: GenerationBroadwell,

	0x4e: GenerationSkylake,
	0x55: GenerationSkylake,
	0x5e: GenerationSkylake,

	0x8e: GenerationKabyLake,
	0x9e: GenerationKabyLake,

	0xa5: GenerationCometLake,
	0xa6: GenerationCometLake,

	0x6a: GenerationIceLake,
	0x6c: GenerationIceLake,
	0x7d: GenerationIceLake,
	0x7e: GenerationIceLake,

	0x8c: GenerationTigerLake,
	0x8d: GenerationTigerLake,

	0xa7: GenerationRocketLake,

	0x97: GenerationAlderLake,
	0x9a: GenerationAlderLake,

	0xb7: GenerationRaptorLake,
	0xba: GenerationRaptorLake,
	0xbf: GenerationRaptorLake,
}

// GenerationOf maps an Intel family/model signature to a generation.
func GenerationOf(family, model int) Generation {
	if family != 6 {
		return GenerationUnknown
	}
	if g, ok := generationByModel[model]; ok {
		return g
	}
	// Newer desktop/mobile models keep RAPL and the thermal MSR layout; treat
	// anything unrecognized above the last known model as current.
	if model > 0xbf {
		return GenerationRaptorLake
	}
	return GenerationUnknown
}
