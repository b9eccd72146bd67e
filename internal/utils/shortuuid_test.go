package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewShortUUID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewShortUUID()
		assert.Len(t, id, ShortUUIDLength)
		for _, r := range id {
			assert.True(t, strings.ContainsRune(shortUUIDAlphabet, r), "unexpected char %q", r)
		}
		assert.False(t, seen[id], "collision: %s", id)
		seen[id] = true
	}
}
