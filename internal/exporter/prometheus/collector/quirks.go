// SPDX-FileCopyrightText: 2025 The CoreSensor Authors
// SPDX-License-Identifier: Apache-2.0

package collector

// Some Apple machines number their per-core sensors from 1 instead of 0.
// The list mirrors the firmware behavior observed on those models.
var oneIndexedModels = map[string]bool{
	"MacBook8,1":     true,
	"MacBook9,1":     true,
	"MacBook10,1":    true,
	"MacBookAir6,1":  true,
	"MacBookAir6,2":  true,
	"MacBookAir7,1":  true,
	"MacBookAir7,2":  true,
	"MacBookAir8,1":  true,
	"MacBookPro9,1":  true,
	"MacBookPro9,2":  true,
	"MacBookPro10,1": true,
	"MacBookPro11,2": true,
	"MacBookPro11,3": true,
	"MacBookPro11,4": true,
	"MacBookPro11,5": true,
	"MacBookPro13,1": true,
	"MacBookPro13,2": true,
	"MacBookPro13,3": true,
	"MacBookPro14,1": true,
	"MacBookPro14,2": true,
	"MacBookPro14,3": true,
	"MacBookPro15,1": true,
	"MacBookPro15,2": true,
}

// CoreLabelOffset returns the core label offset for the given DMI product
// name: 1 for models whose sensors are one-indexed, 0 otherwise.
func CoreLabelOffset(productName string) int {
	if oneIndexedModels[productName] {
		return 1
	}
	return 0
}
