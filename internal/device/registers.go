// SPDX-FileCopyrightText: 2025 The CoreSensor Authors
// SPDX-License-Identifier: Apache-2.0

package device

// Intel MSR addresses read by the sampling engine.
const (
	// MSRPlatformID is consulted only for the Penryn tjmax fallback.
	MSRPlatformID = 0x17

	// MSRPerfStatus carries the core voltage in bits 47:32, in 1/8192 V units.
	MSRPerfStatus = 0x198

	// MSRThermStatus holds the per-core digital thermal readout in bits 22:16,
	// an offset below tjmax. Bit 31 indicates a valid reading.
	MSRThermStatus = 0x19c

	// MSRTemperatureTarget holds tjmax in bits 23:16.
	MSRTemperatureTarget = 0x1a2

	// MSRPackageThermStatus mirrors MSRThermStatus at package scope.
	MSRPackageThermStatus = 0x1b1

	// MSRRaplPowerUnit holds the energy status unit in bits 12:8; one energy
	// counter LSB equals 1/2^unit joules.
	MSRRaplPowerUnit = 0x606

	// RAPL energy counters, one per domain.
	MSRPkgEnergyStatus  = 0x611
	MSRDramEnergyStatus = 0x619
	MSRPP0EnergyStatus  = 0x639 // cores
	MSRPP1EnergyStatus  = 0x641 // uncore
)

// ThermReadingValid is the "reading valid" bit of both thermal status
// registers. A cleared bit means the readout field carries no new data.
const ThermReadingValid = uint64(1) << 31

// Bitfield extracts bits hi..lo (inclusive) of v.
func Bitfield(v uint64, hi, lo uint) uint64 {
	return (v >> lo) & (1<<(hi-lo+1) - 1)
}
