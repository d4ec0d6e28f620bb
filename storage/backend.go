// Package storage is the node's persistent store: a two-tier (pending /
// finalized) object store for blocks, state diffs, and classes over LevelDB,
// plus node persistence for the commitment tries.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/halcyonlabs/starknode/felt"
	"github.com/halcyonlabs/starknode/log"
	"github.com/halcyonlabs/starknode/types"
)

// ErrMissingBlock is returned when a read references a block the store does
// not have.
var ErrMissingBlock = errors.New("block not found")

// Backend is the domain store. Writes of a block are only ever issued by the
// single in-flight import; reads may come from arbitrary goroutines at any
// time and observe the previous committed state until the write completes.
type Backend struct {
	db *PersistenceStore
}

// NewBackend wraps a PersistenceStore. The pending tier is cleared: staged
// pending data does not survive a restart.
func NewBackend(db *PersistenceStore) (*Backend, error) {
	b := &Backend{db: db}
	if err := b.ClearPending(); err != nil {
		return nil, fmt.Errorf("clearing pending tier on open: %w", err)
	}
	return b, nil
}

func (b *Backend) Close() error {
	return b.db.Close()
}

func (b *Backend) putJSON(key []byte, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.db.Put(key, data)
}

func (b *Backend) getJSON(key []byte, v interface{}) (bool, error) {
	data, found, err := b.db.Get(key)
	if err != nil || !found {
		return false, err
	}
	return true, json.Unmarshal(data, v)
}

// StoreBlock persists a block (pending or finalized), its state diff, and its
// converted classes. For a finalized block the latest-block pointer advances
// last, so a crash mid-write never exposes a half-stored head.
func (b *Backend) StoreBlock(info *types.MaybePendingBlockInfo, inner *types.BlockInner, diff *types.StateDiff, classes []types.ConvertedClass) error {
	switch {
	case info.Info != nil:
		return b.storeFinalizedBlock(info.Info, inner, diff, classes)
	case info.PendingInfo != nil:
		return b.storePendingBlock(info.PendingInfo, inner, diff, classes)
	default:
		return errors.New("block info is neither pending nor finalized")
	}
}

func (b *Backend) storeFinalizedBlock(info *types.BlockInfo, inner *types.BlockInner, diff *types.StateDiff, classes []types.ConvertedClass) error {
	n := info.Header.BlockNumber
	log.Debug(log.Storage, "store block", "n", n, "hash", info.BlockHash, "classes", len(classes))

	// A staged pending block extends the previous head; it is stale the
	// moment a finalized block lands.
	if err := b.ClearPending(); err != nil {
		return fmt.Errorf("clearing pending tier: %w", err)
	}
	if err := b.storeClasses(FinalizedAt(n), classes, prefixClassInfo, prefixClassCompiled); err != nil {
		return fmt.Errorf("storing classes: %w", err)
	}
	if err := b.putJSON(numberedKey(prefixBlockInfo, n), info); err != nil {
		return fmt.Errorf("storing block info: %w", err)
	}
	if err := b.putJSON(numberedKey(prefixBlockInner, n), inner); err != nil {
		return fmt.Errorf("storing block body: %w", err)
	}
	if err := b.putJSON(numberedKey(prefixStateDiff, n), diff); err != nil {
		return fmt.Errorf("storing state diff: %w", err)
	}
	if err := b.db.Put(feltKey(prefixBlockHash, info.BlockHash.Marshal()), encodeBlockNumber(n)); err != nil {
		return fmt.Errorf("storing block hash index: %w", err)
	}
	if err := b.putJSON(keyLatestBlock, FinalizedAt(n)); err != nil {
		return fmt.Errorf("advancing latest block: %w", err)
	}
	return nil
}

func (b *Backend) storePendingBlock(info *types.PendingBlockInfo, inner *types.BlockInner, diff *types.StateDiff, classes []types.ConvertedClass) error {
	log.Debug(log.Storage, "store pending block", "classes", len(classes))

	if err := b.storeClasses(LocationPending, classes, prefixPendingClassInfo, prefixPendingClassCompiled); err != nil {
		return fmt.Errorf("storing pending classes: %w", err)
	}
	if err := b.putJSON(keyPendingBlockInfo, info); err != nil {
		return fmt.Errorf("storing pending block info: %w", err)
	}
	if err := b.putJSON(keyPendingBlockInner, inner); err != nil {
		return fmt.Errorf("storing pending block body: %w", err)
	}
	if err := b.putJSON(keyPendingStateDiff, diff); err != nil {
		return fmt.Errorf("storing pending state diff: %w", err)
	}
	return nil
}

// GetLatestBlockInfo returns the node's current head, or nil before genesis.
func (b *Backend) GetLatestBlockInfo() (*types.MaybePendingBlockInfo, error) {
	var loc Location
	found, err := b.getJSON(keyLatestBlock, &loc)
	if err != nil || !found {
		return nil, err
	}
	if loc.Pending {
		var info types.PendingBlockInfo
		found, err := b.getJSON(keyPendingBlockInfo, &info)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, ErrMissingBlock
		}
		return &types.MaybePendingBlockInfo{PendingInfo: &info}, nil
	}
	return b.GetBlockInfoByNumber(loc.BlockNumber)
}

func (b *Backend) GetBlockInfoByNumber(n uint64) (*types.MaybePendingBlockInfo, error) {
	var info types.BlockInfo
	found, err := b.getJSON(numberedKey(prefixBlockInfo, n), &info)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrMissingBlock
	}
	return &types.MaybePendingBlockInfo{Info: &info}, nil
}

func (b *Backend) GetPendingBlockInfo() (*types.PendingBlockInfo, error) {
	var info types.PendingBlockInfo
	found, err := b.getJSON(keyPendingBlockInfo, &info)
	if err != nil || !found {
		return nil, err
	}
	return &info, nil
}

func (b *Backend) GetBlockInner(n uint64) (*types.BlockInner, error) {
	var inner types.BlockInner
	found, err := b.getJSON(numberedKey(prefixBlockInner, n), &inner)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrMissingBlock
	}
	return &inner, nil
}

func (b *Backend) GetStateDiff(n uint64) (*types.StateDiff, error) {
	var diff types.StateDiff
	found, err := b.getJSON(numberedKey(prefixStateDiff, n), &diff)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrMissingBlock
	}
	return &diff, nil
}

// GetBlockHashAndNumber returns the head's identity, or ErrMissingBlock
// before genesis.
func (b *Backend) GetBlockHashAndNumber() (felt.Felt, uint64, error) {
	info, err := b.GetLatestBlockInfo()
	if err != nil {
		return felt.Zero(), 0, err
	}
	if info == nil || info.Info == nil {
		return felt.Zero(), 0, ErrMissingBlock
	}
	return info.Info.BlockHash, info.Info.Header.BlockNumber, nil
}

// ClearPending atomically deletes the entire pending tier. Called on backend
// open and when a pending block is promoted to finalized.
func (b *Backend) ClearPending() error {
	return b.db.DeletePrefix(prefixPending)
}
