package crypto

import (
	"github.com/holiman/uint256"

	"github.com/halcyonlabs/starknode/felt"
	"github.com/halcyonlabs/starknode/types"
)

// blockHashPrefix is the domain-separation constant for block identity
// hashing, "STARKNET_BLOCK_HASH0" as a felt.
var blockHashPrefix = felt.FromString("STARKNET_BLOCK_HASH0")

// BlockHash computes the canonical identity hash of a finalized header on the
// given chain. Pure and deterministic: the same header and chain id produce
// the same hash across processes and time.
func BlockHash(hasher StarkHasher, h *types.Header, chainID felt.Felt) felt.Felt {
	return hasher.HashArray(
		blockHashPrefix,
		chainID,
		felt.New(h.BlockNumber),
		h.GlobalStateRoot,
		h.SequencerAddress,
		felt.New(h.BlockTimestamp),
		felt.New(h.TransactionCount),
		h.TransactionCommitment,
		felt.New(h.EventCount),
		h.EventCommitment,
		felt.New(h.StateDiffLength),
		h.StateDiffCommitment,
		h.ReceiptCommitment,
		gasPriceFelt(h.L1GasPrice.EthL1GasPrice),
		gasPriceFelt(h.L1GasPrice.StrkL1GasPrice),
		gasPriceFelt(h.L1GasPrice.EthL1DataGasPrice),
		gasPriceFelt(h.L1GasPrice.StrkL1DataGasPrice),
		felt.FromString(h.ProtocolVersion),
		felt.New(uint64(h.L1DAMode)),
		h.ParentBlockHash,
	)
}

func gasPriceFelt(p *uint256.Int) felt.Felt {
	if p == nil {
		return felt.Zero()
	}
	b := p.Bytes32()
	return felt.FromBytes(b[:])
}
