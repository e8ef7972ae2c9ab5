package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `["a"]`, StripCodeFences("```json\n[\"a\"]\n```"))
	assert.Equal(t, `["a"]`, StripCodeFences("```\n[\"a\"]\n```"))
	assert.Equal(t, "plain", StripCodeFences("  plain  "))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "short", TruncateRunes("short", 10))
	assert.Equal(t, "ab…", TruncateRunes("abcdef", 3))
	// Rune-aware: never splits a multi-byte character.
	assert.Equal(t, "ñoñ…", TruncateRunes("ñoñoño", 4))
}
