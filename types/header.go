package types

import (
	"github.com/holiman/uint256"

	"github.com/halcyonlabs/starknode/felt"
)

// L1DAMode is the data-availability mode the block's state diff was posted
// with on the settlement layer.
type L1DAMode uint8

const (
	L1DAModeCalldata L1DAMode = iota
	L1DAModeBlob
)

func (m L1DAMode) String() string {
	switch m {
	case L1DAModeCalldata:
		return "CALLDATA"
	case L1DAModeBlob:
		return "BLOB"
	default:
		return "UNKNOWN"
	}
}

// GasPrices carries the L1 gas and data-gas prices quoted in both fee tokens.
type GasPrices struct {
	EthL1GasPrice      *uint256.Int `json:"eth_l1_gas_price"`
	StrkL1GasPrice     *uint256.Int `json:"strk_l1_gas_price"`
	EthL1DataGasPrice  *uint256.Int `json:"eth_l1_data_gas_price"`
	StrkL1DataGasPrice *uint256.Int `json:"strk_l1_data_gas_price"`
}

// UnverifiedHeader holds the candidate header fields supplied by the block
// producer. Parent hash is optional: when present it is checked against the
// local head, the finalized header always embeds the expected one.
type UnverifiedHeader struct {
	ParentBlockHash  *felt.Felt `json:"parent_block_hash,omitempty"`
	SequencerAddress felt.Felt  `json:"sequencer_address"`
	BlockTimestamp   uint64     `json:"block_timestamp"`
	ProtocolVersion  string     `json:"protocol_version"`
	L1GasPrice       GasPrices  `json:"l1_gas_price"`
	L1DAMode         L1DAMode   `json:"l1_da_mode"`
}

// ValidatedCommitments are computed by the pre-validation stage and trusted
// as input here.
type ValidatedCommitments struct {
	TransactionCount      uint64    `json:"transaction_count"`
	TransactionCommitment felt.Felt `json:"transaction_commitment"`
	EventCount            uint64    `json:"event_count"`
	EventCommitment       felt.Felt `json:"event_commitment"`
	StateDiffLength       uint64    `json:"state_diff_length"`
	StateDiffCommitment   felt.Felt `json:"state_diff_commitment"`
	ReceiptCommitment     felt.Felt `json:"receipt_commitment"`
}

// Header is the finalized block header. Immutable once constructed; together
// with the block hash it uniquely identifies a block.
type Header struct {
	ParentBlockHash       felt.Felt `json:"parent_block_hash"`
	BlockNumber           uint64    `json:"block_number"`
	GlobalStateRoot       felt.Felt `json:"global_state_root"`
	SequencerAddress      felt.Felt `json:"sequencer_address"`
	BlockTimestamp        uint64    `json:"block_timestamp"`
	TransactionCount      uint64    `json:"transaction_count"`
	TransactionCommitment felt.Felt `json:"transaction_commitment"`
	EventCount            uint64    `json:"event_count"`
	EventCommitment       felt.Felt `json:"event_commitment"`
	StateDiffLength       uint64    `json:"state_diff_length"`
	StateDiffCommitment   felt.Felt `json:"state_diff_commitment"`
	ReceiptCommitment     felt.Felt `json:"receipt_commitment"`
	ProtocolVersion       string    `json:"protocol_version"`
	L1GasPrice            GasPrices `json:"l1_gas_price"`
	L1DAMode              L1DAMode  `json:"l1_da_mode"`
}

// PendingHeader is a Header without the fields a block only gains on
// finalization (number, state root, hash).
type PendingHeader struct {
	ParentBlockHash  felt.Felt `json:"parent_block_hash"`
	SequencerAddress felt.Felt `json:"sequencer_address"`
	BlockTimestamp   uint64    `json:"block_timestamp"`
	ProtocolVersion  string    `json:"protocol_version"`
	L1GasPrice       GasPrices `json:"l1_gas_price"`
	L1DAMode         L1DAMode  `json:"l1_da_mode"`
}
