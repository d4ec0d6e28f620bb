package storage

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyonlabs/starknode/felt"
	"github.com/halcyonlabs/starknode/types"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	db, err := NewMemoryPersistenceStore()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	backend, err := NewBackend(db)
	require.NoError(t, err)
	return backend
}

func finalizedInfo(n uint64, hash felt.Felt) *types.MaybePendingBlockInfo {
	return &types.MaybePendingBlockInfo{Info: &types.BlockInfo{
		Header:    types.Header{BlockNumber: n},
		BlockHash: hash,
	}}
}

func TestLatestBlockInfo(t *testing.T) {
	backend := newTestBackend(t)

	info, err := backend.GetLatestBlockInfo()
	require.NoError(t, err)
	require.Nil(t, info, "empty store has no latest block")

	require.NoError(t, backend.StoreBlock(finalizedInfo(0, felt.New(100)), &types.BlockInner{}, &types.StateDiff{}, nil))
	require.NoError(t, backend.StoreBlock(finalizedInfo(1, felt.New(101)), &types.BlockInner{}, &types.StateDiff{}, nil))

	info, err = backend.GetLatestBlockInfo()
	require.NoError(t, err)
	require.NotNil(t, info.Info)
	assert.Equal(t, uint64(1), info.Info.Header.BlockNumber)
	assert.Equal(t, felt.New(101), info.Info.BlockHash)

	hash, n, err := backend.GetBlockHashAndNumber()
	require.NoError(t, err)
	assert.Equal(t, felt.New(101), hash)
	assert.Equal(t, uint64(1), n)
}

func TestBlockRoundTrip(t *testing.T) {
	backend := newTestBackend(t)

	inner := &types.BlockInner{
		Transactions: []types.Transaction{{Hash: felt.New(7)}},
		Receipts:     []types.Receipt{{TransactionHash: felt.New(7)}},
	}
	diff := &types.StateDiff{Nonces: []types.NonceUpdate{{ContractAddress: felt.New(1), Nonce: felt.New(2)}}}
	require.NoError(t, backend.StoreBlock(finalizedInfo(0, felt.New(100)), inner, diff, nil))

	gotInner, err := backend.GetBlockInner(0)
	require.NoError(t, err)
	assert.Equal(t, inner, gotInner)

	gotDiff, err := backend.GetStateDiff(0)
	require.NoError(t, err)
	assert.Equal(t, diff, gotDiff)

	_, err = backend.GetBlockInner(1)
	assert.ErrorIs(t, err, ErrMissingBlock)
}

func TestIdempotentClassDeclaration(t *testing.T) {
	backend := newTestBackend(t)

	classHash := felt.New(42)
	first := []types.ConvertedClass{{ClassHash: classHash, Info: types.ClassInfo{SierraVersion: "1.6.0", CompiledClassHash: felt.New(420)}}}
	redeclared := []types.ConvertedClass{{ClassHash: classHash, Info: types.ClassInfo{SierraVersion: "9.9.9", CompiledClassHash: felt.New(999)}}}

	require.NoError(t, backend.StoreBlock(finalizedInfo(0, felt.New(100)), &types.BlockInner{}, &types.StateDiff{}, first))
	require.NoError(t, backend.StoreBlock(finalizedInfo(1, felt.New(101)), &types.BlockInner{}, &types.StateDiff{}, redeclared))

	// first writer wins; the redeclaration is a silent no-op
	info, err := backend.GetClassInfo(FinalizedAt(1), classHash)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "1.6.0", info.SierraVersion)
}

func TestClassVisibility(t *testing.T) {
	backend := newTestBackend(t)

	classHash := felt.New(42)
	classes := []types.ConvertedClass{{ClassHash: classHash, Info: types.ClassInfo{SierraVersion: "1.6.0"}}}
	require.NoError(t, backend.StoreBlock(finalizedInfo(0, felt.New(100)), &types.BlockInner{}, &types.StateDiff{}, nil))
	require.NoError(t, backend.StoreBlock(finalizedInfo(1, felt.New(101)), &types.BlockInner{}, &types.StateDiff{}, nil))
	require.NoError(t, backend.StoreBlock(finalizedInfo(2, felt.New(102)), &types.BlockInner{}, &types.StateDiff{}, classes))

	// not yet visible at block 1, visible from 2 onward and to pending reads
	info, err := backend.GetClassInfo(FinalizedAt(1), classHash)
	require.NoError(t, err)
	assert.Nil(t, info)

	info, err = backend.GetClassInfo(FinalizedAt(2), classHash)
	require.NoError(t, err)
	assert.NotNil(t, info)

	info, err = backend.GetClassInfo(LocationPending, classHash)
	require.NoError(t, err)
	assert.NotNil(t, info)
}

func TestPendingTier(t *testing.T) {
	backend := newTestBackend(t)

	classHash := felt.New(77)
	pendingBlock := &types.MaybePendingBlockInfo{PendingInfo: &types.PendingBlockInfo{
		Header: types.PendingHeader{ParentBlockHash: felt.New(1)},
	}}
	classes := []types.ConvertedClass{{
		ClassHash: classHash,
		Info:      types.ClassInfo{SierraVersion: "1.6.0", CompiledClassHash: felt.New(770)},
		Compiled:  &types.CompiledClass{Program: []byte(`"prog"`)},
	}}
	require.NoError(t, backend.StoreBlock(pendingBlock, &types.BlockInner{}, &types.StateDiff{}, classes))

	// visible to a pending-aware read only
	info, err := backend.GetClassInfo(LocationPending, classHash)
	require.NoError(t, err)
	require.NotNil(t, info)

	info, err = backend.GetClassInfo(FinalizedAt(1000), classHash)
	require.NoError(t, err)
	assert.Nil(t, info)

	compiled, err := backend.GetCompiledClass(LocationPending, felt.New(770))
	require.NoError(t, err)
	require.NotNil(t, compiled)

	// pending block info is stored but the latest pointer does not move
	pending, err := backend.GetPendingBlockInfo()
	require.NoError(t, err)
	require.NotNil(t, pending)
	latest, err := backend.GetLatestBlockInfo()
	require.NoError(t, err)
	assert.Nil(t, latest)

	// clearing removes the whole tier and nothing else
	require.NoError(t, backend.ClearPending())
	info, err = backend.GetClassInfo(LocationPending, classHash)
	require.NoError(t, err)
	assert.Nil(t, info)
	pending, err = backend.GetPendingBlockInfo()
	require.NoError(t, err)
	assert.Nil(t, pending)
}

func TestClearPendingKeepsFinalized(t *testing.T) {
	backend := newTestBackend(t)

	finalizedHash := felt.New(1)
	pendingHash := felt.New(2)
	require.NoError(t, backend.StoreBlock(finalizedInfo(0, felt.New(100)), &types.BlockInner{}, &types.StateDiff{},
		[]types.ConvertedClass{{ClassHash: finalizedHash}}))
	require.NoError(t, backend.StoreBlock(
		&types.MaybePendingBlockInfo{PendingInfo: &types.PendingBlockInfo{}},
		&types.BlockInner{}, &types.StateDiff{},
		[]types.ConvertedClass{{ClassHash: pendingHash}}))

	require.NoError(t, backend.ClearPending())

	info, err := backend.GetClassInfo(LocationPending, finalizedHash)
	require.NoError(t, err)
	assert.NotNil(t, info, "finalized entry must survive a pending clear")
	info, err = backend.GetClassInfo(LocationPending, pendingHash)
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestPendingClearedOnFinalizedStore(t *testing.T) {
	backend := newTestBackend(t)

	classHash := felt.New(77)
	require.NoError(t, backend.StoreBlock(
		&types.MaybePendingBlockInfo{PendingInfo: &types.PendingBlockInfo{}},
		&types.BlockInner{}, &types.StateDiff{},
		[]types.ConvertedClass{{ClassHash: classHash}}))

	// a finalized block supersedes whatever was staged
	require.NoError(t, backend.StoreBlock(finalizedInfo(0, felt.New(100)), &types.BlockInner{}, &types.StateDiff{}, nil))

	pending, err := backend.GetPendingBlockInfo()
	require.NoError(t, err)
	assert.Nil(t, pending)
	info, err := backend.GetClassInfo(LocationPending, classHash)
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestPendingClearedOnOpen(t *testing.T) {
	db, err := NewMemoryPersistenceStore()
	require.NoError(t, err)
	defer db.Close()

	backend, err := NewBackend(db)
	require.NoError(t, err)
	require.NoError(t, backend.StoreBlock(
		&types.MaybePendingBlockInfo{PendingInfo: &types.PendingBlockInfo{}},
		&types.BlockInner{}, &types.StateDiff{}, nil))

	// reopening over the same engine drops staged pending data
	backend, err = NewBackend(db)
	require.NoError(t, err)
	pending, err := backend.GetPendingBlockInfo()
	require.NoError(t, err)
	assert.Nil(t, pending)
}

// A latest pointer at the pending tier must surface as pending so the import
// pipeline can reject it: pending blocks are never canonical heads.
func TestLatestPointerAtPending(t *testing.T) {
	db, err := NewMemoryPersistenceStore()
	require.NoError(t, err)
	defer db.Close()
	backend, err := NewBackend(db)
	require.NoError(t, err)

	require.NoError(t, backend.StoreBlock(
		&types.MaybePendingBlockInfo{PendingInfo: &types.PendingBlockInfo{}},
		&types.BlockInner{}, &types.StateDiff{}, nil))

	loc, err := json.Marshal(LocationPending)
	require.NoError(t, err)
	require.NoError(t, db.Put(keyLatestBlock, loc))

	info, err := backend.GetLatestBlockInfo()
	require.NoError(t, err)
	require.True(t, info.IsPending())
	require.Nil(t, info.AsFinalized())

	// a dangling pending pointer is a hard error, not a silent nil
	require.NoError(t, backend.ClearPending())
	_, err = backend.GetLatestBlockInfo()
	require.ErrorIs(t, err, ErrMissingBlock)
}

func TestContractState(t *testing.T) {
	backend := newTestBackend(t)

	addr := felt.New(5)
	state, err := backend.GetContractState(addr)
	require.NoError(t, err)
	require.Nil(t, state)

	want := ContractState{ClassHash: felt.New(1), Nonce: felt.New(2), StorageRoot: felt.New(3)}
	require.NoError(t, backend.PutContractStates(map[felt.Felt]ContractState{addr: want}))

	state, err = backend.GetContractState(addr)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, want, *state)
}

func TestTrieStore(t *testing.T) {
	backend := newTestBackend(t)

	store := backend.TrieStore("contracts")
	other := backend.TrieStore("classes")

	hash := felt.New(9)
	require.NoError(t, store.PutNodes(map[felt.Felt][]byte{hash: []byte("node")}))

	data, found, err := store.GetNode(hash)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("node"), data)

	// name-scoped: the other trie does not see it
	_, found, err = other.GetNode(hash)
	require.NoError(t, err)
	assert.False(t, found)

	root, err := backend.GetTrieRoot("contracts")
	require.NoError(t, err)
	assert.True(t, root.IsZero())
	require.NoError(t, backend.PutTrieRoot("contracts", felt.New(11)))
	root, err = backend.GetTrieRoot("contracts")
	require.NoError(t, err)
	assert.Equal(t, felt.New(11), root)
}
