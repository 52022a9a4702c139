package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateShortID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := GenerateShortID()
		assert.True(t, IsValidShortID(id), "generated id %q must validate", id)
		seen[id] = true
	}
	// 1000 draws from a 32-bit space should not collide down to a handful
	assert.Greater(t, len(seen), 990)
}

func TestIsValidShortID(t *testing.T) {
	valid := []string{"a1b2c3d4", "00000000", "ffffffff"}
	for _, s := range valid {
		assert.True(t, IsValidShortID(s), "expected %q to be valid", s)
	}

	invalid := []string{
		"",
		"a1b2c3d",    // too short
		"a1b2c3d4e",  // too long
		"A1B2C3D4",   // uppercase
		"g1b2c3d4",   // non-hex
		"a1b2 c3d4",  // whitespace
		"../../etc",  // traversal attempt
		"a1b2c3d4\n", // trailing newline
	}
	for _, s := range invalid {
		assert.False(t, IsValidShortID(s), "expected %q to be invalid", s)
	}
}
