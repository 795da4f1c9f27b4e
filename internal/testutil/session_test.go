package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedSessionGenerator_ReturnsSameID(t *testing.T) {
	gen := NewFixedSessionGenerator("session-123")

	assert.Equal(t, "session-123", gen.Generate())
	assert.Equal(t, "session-123", gen.Generate())
}

func TestFixedSessionGenerator_EmptyIDDefault(t *testing.T) {
	gen := NewFixedSessionGenerator("")

	assert.Equal(t, "test-session-default", gen.Generate())
}
