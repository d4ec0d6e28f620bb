package types

import (
	"encoding/json"

	"github.com/halcyonlabs/starknode/felt"
)

// Transaction and Receipt payloads are validated structurally by the
// pre-validation stage; this pipeline only threads them through to storage
// and reads the hashes.
type Transaction struct {
	Hash    felt.Felt       `json:"transaction_hash"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Receipt struct {
	TransactionHash felt.Felt       `json:"transaction_hash"`
	Payload         json.RawMessage `json:"payload,omitempty"`
}

// PreValidatedBlock is a finalized-track block candidate. Created by the
// pre-validation stage, consumed exactly once by the import pipeline, never
// mutated after creation. The Unverified* fields carry the producer's claims,
// used for backfill verification against a known-good chain.
type PreValidatedBlock struct {
	Header           UnverifiedHeader     `json:"header"`
	Commitments      ValidatedCommitments `json:"commitments"`
	Transactions     []Transaction        `json:"transactions"`
	Receipts         []Receipt            `json:"receipts"`
	StateDiff        StateDiff            `json:"state_diff"`
	ConvertedClasses []ConvertedClass     `json:"converted_classes"`

	UnverifiedBlockNumber     *uint64    `json:"unverified_block_number,omitempty"`
	UnverifiedBlockHash       *felt.Felt `json:"unverified_block_hash,omitempty"`
	UnverifiedGlobalStateRoot *felt.Felt `json:"unverified_global_state_root,omitempty"`
}

// PreValidatedPendingBlock is the pending-track equivalent. No state-root or
// identity verification is performed for it.
type PreValidatedPendingBlock struct {
	Header           UnverifiedHeader     `json:"header"`
	Commitments      ValidatedCommitments `json:"commitments"`
	Transactions     []Transaction        `json:"transactions"`
	Receipts         []Receipt            `json:"receipts"`
	StateDiff        StateDiff            `json:"state_diff"`
	ConvertedClasses []ConvertedClass     `json:"converted_classes"`
}

// TxHashes extracts the transaction hashes from receipts; they were checked
// against the transactions upstream.
func TxHashes(receipts []Receipt) []felt.Felt {
	hashes := make([]felt.Felt, len(receipts))
	for i, r := range receipts {
		hashes[i] = r.TransactionHash
	}
	return hashes
}

// BlockInfo is the stored identity of a finalized block.
type BlockInfo struct {
	Header    Header      `json:"header"`
	BlockHash felt.Felt   `json:"block_hash"`
	TxHashes  []felt.Felt `json:"tx_hashes"`
}

// PendingBlockInfo is the stored identity of the staged pending block.
type PendingBlockInfo struct {
	Header   PendingHeader `json:"header"`
	TxHashes []felt.Felt   `json:"tx_hashes"`
}

// MaybePendingBlockInfo is what a tag-addressed block-info read returns:
// exactly one of the two fields is set.
type MaybePendingBlockInfo struct {
	Info        *BlockInfo        `json:"info,omitempty"`
	PendingInfo *PendingBlockInfo `json:"pending_info,omitempty"`
}

// AsFinalized returns the finalized info, or nil if this is a pending block.
func (m *MaybePendingBlockInfo) AsFinalized() *BlockInfo {
	if m == nil {
		return nil
	}
	return m.Info
}

func (m *MaybePendingBlockInfo) IsPending() bool {
	return m != nil && m.PendingInfo != nil
}

// BlockInner is the stored body of a block.
type BlockInner struct {
	Transactions []Transaction `json:"transactions"`
	Receipts     []Receipt     `json:"receipts"`
}

// BlockImportResult is returned on a successful finalized import.
type BlockImportResult struct {
	Header    Header    `json:"header"`
	BlockHash felt.Felt `json:"block_hash"`
}

// PendingBlockImportResult marks a successful pending import.
type PendingBlockImportResult struct{}
