// SPDX-FileCopyrightText: 2025 The CoreSensor Authors
// SPDX-License-Identifier: Apache-2.0

package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBitfield(t *testing.T) {
	// thermal readout occupies bits 22:16
	raw := uint64(0x883a0800)
	assert.Equal(t, uint64(0x3a), Bitfield(raw, 22, 16))

	// tjmax occupies bits 23:16
	assert.Equal(t, uint64(0x64), Bitfield(uint64(0x640000), 23, 16))

	// full width
	assert.Equal(t, uint64(0xffffffffffffffff), Bitfield(^uint64(0), 63, 0))

	// single bit
	assert.Equal(t, uint64(1), Bitfield(uint64(1)<<31, 31, 31))
	assert.Equal(t, uint64(0), Bitfield(0, 31, 31))
}
