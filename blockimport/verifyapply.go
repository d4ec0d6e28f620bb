// Package blockimport verifies that an incoming block extends the local
// chain, recomputes the state commitment from its state diff, derives and
// checks its canonical hash, and persists the result as the new head.
package blockimport

import (
	"sync"

	"github.com/halcyonlabs/starknode/chainspec"
	"github.com/halcyonlabs/starknode/crypto"
	"github.com/halcyonlabs/starknode/felt"
	"github.com/halcyonlabs/starknode/log"
	"github.com/halcyonlabs/starknode/storage"
	"github.com/halcyonlabs/starknode/types"
)

// VerifyApply is the import orchestrator. Only one import of either kind can
// run at a time: trie state and the latest-block pointer are shared mutable
// structures with no transactional isolation across overlapping writers, so
// the whole commit sequence is a critical section.
type VerifyApply struct {
	backend *storage.Backend
	hasher  crypto.StarkHasher
	pool    *Pool

	// mutex is shared by the finalized and pending entry points.
	mutex sync.Mutex

	contractsTrie *commitmentTrie
	classesTrie   *commitmentTrie
}

// New wires the orchestrator over an opened backend. The hasher is the
// network's reference hash oracle; commitments are bit-exact against the
// network exactly insofar as it is.
func New(backend *storage.Backend, hasher crypto.StarkHasher, pool *Pool) (*VerifyApply, error) {
	contracts, err := openCommitmentTrie(backend, hasher, trieNameContracts)
	if err != nil {
		return nil, err
	}
	classes, err := openCommitmentTrie(backend, hasher, trieNameClasses)
	if err != nil {
		return nil, err
	}
	return &VerifyApply{
		backend:       backend,
		hasher:        hasher,
		pool:          pool,
		contractsTrie: contracts,
		classesTrie:   classes,
	}, nil
}

// VerifyApply imports a finalized-track block: continuity check, trie
// updates, identity hash, persistence. On success the stored block is the new
// latest block. The caller suspends while the work runs on the pool.
func (v *VerifyApply) VerifyApply(block *types.PreValidatedBlock, validation chainspec.ValidationContext) (*types.BlockImportResult, error) {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	var result *types.BlockImportResult
	err := v.pool.Do(func() error {
		var err error
		result, err = v.verifyApplyInner(block, validation)
		return err
	})
	return result, err
}

// VerifyApplyPending imports the staged pending block. No trie update and no
// identity verification: pending blocks are not part of the numbered chain.
func (v *VerifyApply) VerifyApplyPending(block *types.PreValidatedPendingBlock, validation chainspec.ValidationContext) (*types.PendingBlockImportResult, error) {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	var result *types.PendingBlockImportResult
	err := v.pool.Do(func() error {
		var err error
		result, err = v.verifyApplyPendingInner(block, validation)
		return err
	})
	return result, err
}

// verifyApplyInner runs the whole finalized-import sequence. It must be
// called with the mutex held; it uses parallelism inside.
func (v *VerifyApply) verifyApplyInner(block *types.PreValidatedBlock, validation chainspec.ValidationContext) (*types.BlockImportResult, error) {
	blockNumber, parentBlockHash, err := v.checkParentHashAndNum(block.Header.ParentBlockHash, block.UnverifiedBlockNumber, validation)
	if err != nil {
		return nil, err
	}

	globalStateRoot, err := v.updateTries(block, validation, blockNumber)
	if err != nil {
		return nil, err
	}

	blockHash, header, err := v.blockHash(block, validation, blockNumber, parentBlockHash, globalStateRoot)
	if err != nil {
		return nil, err
	}

	log.Debug(log.Import, "verified block, storing",
		"n", blockNumber, "hash", blockHash, "root", globalStateRoot, "stateChanges", block.StateDiff.Length())

	err = v.backend.StoreBlock(
		&types.MaybePendingBlockInfo{Info: &types.BlockInfo{
			Header:    *header,
			BlockHash: blockHash,
			// tx hashes come from receipts, validated upstream
			TxHashes: types.TxHashes(block.Receipts),
		}},
		&types.BlockInner{Transactions: block.Transactions, Receipts: block.Receipts},
		&block.StateDiff,
		block.ConvertedClasses,
	)
	if err != nil {
		return nil, makeStorageError("storing block in db")(err)
	}

	return &types.BlockImportResult{Header: *header, BlockHash: blockHash}, nil
}

func (v *VerifyApply) verifyApplyPendingInner(block *types.PreValidatedPendingBlock, validation chainspec.ValidationContext) (*types.PendingBlockImportResult, error) {
	_, parentBlockHash, err := v.checkParentHashAndNum(block.Header.ParentBlockHash, nil, validation)
	if err != nil {
		return nil, err
	}

	header := types.PendingHeader{
		ParentBlockHash:  parentBlockHash,
		SequencerAddress: block.Header.SequencerAddress,
		BlockTimestamp:   block.Header.BlockTimestamp,
		ProtocolVersion:  block.Header.ProtocolVersion,
		L1GasPrice:       block.Header.L1GasPrice,
		L1DAMode:         block.Header.L1DAMode,
	}

	err = v.backend.StoreBlock(
		&types.MaybePendingBlockInfo{PendingInfo: &types.PendingBlockInfo{
			Header:   header,
			TxHashes: types.TxHashes(block.Receipts),
		}},
		&types.BlockInner{Transactions: block.Transactions, Receipts: block.Receipts},
		&block.StateDiff,
		block.ConvertedClasses,
	)
	if err != nil {
		return nil, makeStorageError("storing block in db")(err)
	}

	return &types.PendingBlockImportResult{}, nil
}

// checkParentHashAndNum resolves the block number to import and the parent
// hash to embed in the header. The returned parent hash is always the local
// head's actual hash: even when IgnoreBlockOrder tolerates a mismatched
// claim, the chain stays anchored to verified history.
func (v *VerifyApply) checkParentHashAndNum(parentBlockHash *felt.Felt, unverifiedBlockNumber *uint64, validation chainspec.ValidationContext) (uint64, felt.Felt, error) {
	latest, err := v.backend.GetLatestBlockInfo()
	if err != nil {
		return 0, felt.Zero(), makeStorageError("getting latest block info")(err)
	}

	var expectedBlockNumber uint64
	var expectedParentHash felt.Felt
	if latest != nil {
		info := latest.AsFinalized()
		if info == nil {
			return 0, felt.Zero(), errInternal("latest block cannot be pending")
		}
		expectedBlockNumber = info.Header.BlockNumber + 1
		expectedParentHash = info.BlockHash
	} else {
		// importing the genesis block
		expectedBlockNumber = 0
		expectedParentHash = felt.Zero()
	}

	blockNumber := expectedBlockNumber
	if unverifiedBlockNumber != nil {
		if *unverifiedBlockNumber != expectedBlockNumber && !validation.IgnoreBlockOrder {
			return 0, felt.Zero(), errBlockNumber(expectedBlockNumber, *unverifiedBlockNumber)
		}
		blockNumber = *unverifiedBlockNumber
	}

	if parentBlockHash != nil {
		if !parentBlockHash.Equal(expectedParentHash) && !validation.IgnoreBlockOrder {
			return 0, felt.Zero(), errParentHash(expectedParentHash, *parentBlockHash)
		}
	}

	return blockNumber, expectedParentHash, nil
}

// blockHash assembles the finalized header and verifies the block identity.
func (v *VerifyApply) blockHash(block *types.PreValidatedBlock, validation chainspec.ValidationContext, blockNumber uint64, parentBlockHash, globalStateRoot felt.Felt) (felt.Felt, *types.Header, error) {
	header := &types.Header{
		ParentBlockHash:       parentBlockHash,
		BlockNumber:           blockNumber,
		GlobalStateRoot:       globalStateRoot,
		SequencerAddress:      block.Header.SequencerAddress,
		BlockTimestamp:        block.Header.BlockTimestamp,
		TransactionCount:      block.Commitments.TransactionCount,
		TransactionCommitment: block.Commitments.TransactionCommitment,
		EventCount:            block.Commitments.EventCount,
		EventCommitment:       block.Commitments.EventCommitment,
		StateDiffLength:       block.Commitments.StateDiffLength,
		StateDiffCommitment:   block.Commitments.StateDiffCommitment,
		ReceiptCommitment:     block.Commitments.ReceiptCommitment,
		ProtocolVersion:       block.Header.ProtocolVersion,
		L1GasPrice:            block.Header.L1GasPrice,
		L1DAMode:              block.Header.L1DAMode,
	}
	blockHash := crypto.BlockHash(v.hasher, header, validation.ChainID.ID)

	if block.UnverifiedBlockHash != nil {
		// mismatched block hashes are accepted verbatim for the historical
		// mainnet range, see chainspec.InTrustedHashRange
		if chainspec.InTrustedHashRange(validation.ChainID, blockNumber) {
			return *block.UnverifiedBlockHash, header, nil
		}
		if !block.UnverifiedBlockHash.Equal(blockHash) && !validation.IgnoreBlockOrder {
			return felt.Zero(), nil, errBlockHash(*block.UnverifiedBlockHash, blockHash)
		}
	}

	return blockHash, header, nil
}
