package wallet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Well-known development key; never funded.
const testKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func TestNewSignerDerivesAddress(t *testing.T) {
	signer, err := NewSigner(testKey, "", 0)
	require.NoError(t, err)

	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", signer.Address())
	assert.Equal(t, signer.Address(), signer.MakerAddress())
	assert.NotNil(t, signer.PrivateKey())
}

func TestNewSignerAcceptsHexPrefix(t *testing.T) {
	signer, err := NewSigner("0x"+testKey, "", 0)
	require.NoError(t, err)
	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", signer.Address())
}

func TestNewSignerProxyWins(t *testing.T) {
	signer, err := NewSigner(testKey, "0xProxy", 2)
	require.NoError(t, err)

	assert.Equal(t, "0xProxy", signer.MakerAddress())
	assert.NotEqual(t, signer.Address(), signer.MakerAddress())
	assert.Equal(t, 2, signer.SignatureType())
}

func TestNewSignerRejectsBadKey(t *testing.T) {
	_, err := NewSigner("not-a-key", "", 0)
	assert.Error(t, err)
}
