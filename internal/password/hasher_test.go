package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHashAndVerify(t *testing.T) {
	h := &Bcrypt{Cost: bcrypt.MinCost}

	digest, err := h.Hash("P@ssw0rd!")
	require.NoError(t, err)
	assert.NotEqual(t, "P@ssw0rd!", digest)

	assert.True(t, h.Verify("P@ssw0rd!", digest))
	assert.False(t, h.Verify("p@ssw0rd!", digest))
	assert.False(t, h.Verify("", digest))
}

func TestBcryptSaltedDigestsDiffer(t *testing.T) {
	h := &Bcrypt{Cost: bcrypt.MinCost}

	d1, err := h.Hash("same input")
	require.NoError(t, err)
	d2, err := h.Hash("same input")
	require.NoError(t, err)

	assert.NotEqual(t, d1, d2, "bcrypt digests embed a random salt")
	assert.True(t, h.Verify("same input", d1))
	assert.True(t, h.Verify("same input", d2))
}

func TestBcryptDefaultCost(t *testing.T) {
	h := &Bcrypt{}
	assert.Equal(t, bcrypt.DefaultCost, h.cost())
}
