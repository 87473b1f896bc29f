package gate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerify(t *testing.T) {
	s := New(nil, "LUMINA2024")

	assert.True(t, s.verify("LUMINA2024"))
	assert.False(t, s.verify("lumina2024"))
	assert.False(t, s.verify("LUMINA2024 "))
	assert.False(t, s.verify(""))
}

func TestVerifyWithoutConfiguredCode(t *testing.T) {
	// A missing code must not open the gate to everyone.
	s := New(nil, "")

	assert.False(t, s.verify(""))
	assert.False(t, s.verify("anything"))

	err := s.Unlock(context.Background(), "u1", "anything")
	assert.ErrorIs(t, err, ErrBadAccessCode)
}
