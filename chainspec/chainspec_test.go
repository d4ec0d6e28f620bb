package chainspec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyonlabs/starknode/felt"
)

func TestChainIDs(t *testing.T) {
	require.Equal(t, felt.MustFromHex("0x534e5f4d41494e"), Mainnet.ID)
	require.Equal(t, felt.MustFromHex("0x534e5f5345504f4c4941"), Sepolia.ID)
	require.True(t, Custom("SN_MAIN").Equal(Mainnet))
	require.False(t, Mainnet.Equal(Sepolia))
}

func TestInTrustedHashRange(t *testing.T) {
	// boundaries are inclusive
	assert.True(t, InTrustedHashRange(Mainnet, 1466))
	assert.True(t, InTrustedHashRange(Mainnet, 2000))
	assert.True(t, InTrustedHashRange(Mainnet, 2242))
	assert.False(t, InTrustedHashRange(Mainnet, 1465))
	assert.False(t, InTrustedHashRange(Mainnet, 2243))
	assert.False(t, InTrustedHashRange(Sepolia, 2000))
}
