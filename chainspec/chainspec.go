// Package chainspec identifies the networks this node can import blocks for
// and the per-import validation policy.
package chainspec

import (
	"github.com/halcyonlabs/starknode/felt"
)

// ChainID distinguishes independent networks sharing the same protocol. It is
// mixed into every block hash, so two chains can never share a block identity.
type ChainID struct {
	Name string
	ID   felt.Felt
}

var (
	Mainnet = ChainID{Name: "SN_MAIN", ID: felt.FromString("SN_MAIN")}
	Sepolia = ChainID{Name: "SN_SEPOLIA", ID: felt.FromString("SN_SEPOLIA")}
)

// Custom builds a chain id for a private network.
func Custom(name string) ChainID {
	return ChainID{Name: name, ID: felt.FromString(name)}
}

func (c ChainID) Equal(other ChainID) bool {
	return c.ID.Equal(other.ID)
}

// ValidationContext is the full externally visible configuration surface of
// the import pipeline.
type ValidationContext struct {
	ChainID ChainID

	// IgnoreBlockOrder skips continuity and identity mismatch errors, for
	// trusted/forced import. It never skips a global state root check that
	// actually ran.
	IgnoreBlockOrder bool

	// TrustGlobalTries skips trie recomputation and accepts the asserted
	// state root, for fast historical sync.
	TrustGlobalTries bool
}

// Blocks 1466..=2242 on mainnet carry block hashes that do not match the
// canonical recomputation. The asserted hash is accepted verbatim inside this
// range; a known historical discrepancy, kept for compatibility.
const (
	TrustedHashRangeStart uint64 = 1466
	TrustedHashRangeEnd   uint64 = 2242
)

// InTrustedHashRange reports whether the historical mainnet exception applies.
func InTrustedHashRange(chain ChainID, blockNumber uint64) bool {
	return chain.Equal(Mainnet) &&
		blockNumber >= TrustedHashRangeStart && blockNumber <= TrustedHashRangeEnd
}
