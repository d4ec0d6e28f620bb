// Package trie implements the fixed-height binary Merkle trie backing the
// state commitments. Keys are felts addressed bit by bit from the top of the
// key space; an empty subtree commits to zero. The node hash and leaf
// encoding are supplied by the caller, keeping the external protocol's exact
// formulas out of this package.
package trie

import (
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/halcyonlabs/starknode/crypto"
	"github.com/halcyonlabs/starknode/felt"
	"github.com/halcyonlabs/starknode/log"
)

// DefaultHeight is the key width of the protocol's commitment tries.
const DefaultHeight = 251

// parallelDepth bounds the fork-join fan-out of a batch update: recursion
// forks while shallower than this, giving up to 2^parallelDepth concurrent
// subtree updates over provably disjoint key ranges.
const parallelDepth = 4

// NodeStore persists branch nodes content-addressed by their hash. Leaves are
// not stored: at full depth the node hash is the value itself.
type NodeStore interface {
	GetNode(hash felt.Felt) ([]byte, bool, error)
	PutNodes(nodes map[felt.Felt][]byte) error
}

// Trie is a persistent trie rooted at a committed hash. Staged writes are
// invisible until Commit. Not safe for concurrent mutation; Commit itself
// parallelizes internally.
type Trie struct {
	height int
	hasher crypto.StarkHasher
	store  NodeStore

	rootHash felt.Felt
	staged   map[felt.Felt]felt.Felt

	// writeBatch collects new branch nodes during one Commit.
	writeBatch map[felt.Felt][]byte
	batchMutex sync.Mutex
}

// New opens a trie over the given node store, rooted at root (zero for an
// empty trie).
func New(height int, hasher crypto.StarkHasher, store NodeStore, root felt.Felt) *Trie {
	return &Trie{
		height:   height,
		hasher:   hasher,
		store:    store,
		rootHash: root,
		staged:   make(map[felt.Felt]felt.Felt),
	}
}

// Root returns the committed root, excluding staged writes.
func (t *Trie) Root() felt.Felt {
	return t.rootHash
}

// Stage records a key-value write to be applied by the next Commit. A zero
// value clears the key. Re-staging a key overwrites the earlier staged value.
func (t *Trie) Stage(key, value felt.Felt) {
	t.staged[key] = value
}

// StagedCount returns the number of keys staged for the next Commit.
func (t *Trie) StagedCount() int {
	return len(t.staged)
}

type kv struct {
	key   [felt.Bytes]byte
	value felt.Felt
}

// Commit applies all staged writes, persists the new branch nodes, and
// returns the new root. The staged set is drained on success.
func (t *Trie) Commit() (felt.Felt, error) {
	if len(t.staged) == 0 {
		return t.rootHash, nil
	}

	kvs := make([]kv, 0, len(t.staged))
	for key, value := range t.staged {
		kvs = append(kvs, kv{key: key.Bytes(), value: value})
	}

	t.writeBatch = make(map[felt.Felt][]byte)
	newRoot, err := t.update(t.rootHash, 0, kvs)
	if err != nil {
		return felt.Zero(), err
	}
	if err := t.store.PutNodes(t.writeBatch); err != nil {
		return felt.Zero(), fmt.Errorf("flushing trie nodes: %w", err)
	}
	log.Trace(log.Trie, "trie commit", "keys", len(kvs), "nodes", len(t.writeBatch), "root", newRoot)

	t.writeBatch = nil
	t.staged = make(map[felt.Felt]felt.Felt)
	t.rootHash = newRoot
	return newRoot, nil
}

// update rewrites the subtree rooted at h with the given writes and returns
// its new hash. The two child recursions partition the writes by the next key
// bit, so parallel branches touch disjoint key ranges by construction.
func (t *Trie) update(h felt.Felt, depth int, kvs []kv) (felt.Felt, error) {
	if len(kvs) == 0 {
		return h, nil
	}
	if depth == t.height {
		// staged keys are unique, a single write reaches full depth
		return kvs[0].value, nil
	}

	leftHash, rightHash, err := t.children(h)
	if err != nil {
		return felt.Zero(), err
	}

	var left, right []kv
	for _, item := range kvs {
		if t.bit(item.key, depth) {
			right = append(right, item)
		} else {
			left = append(left, item)
		}
	}

	var newLeft, newRight felt.Felt
	if depth < parallelDepth && len(left) > 0 && len(right) > 0 {
		g := errgroup.Group{}
		g.Go(func() error {
			var err error
			newLeft, err = t.update(leftHash, depth+1, left)
			return err
		})
		g.Go(func() error {
			var err error
			newRight, err = t.update(rightHash, depth+1, right)
			return err
		})
		if err := g.Wait(); err != nil {
			return felt.Zero(), err
		}
	} else {
		if newLeft, err = t.update(leftHash, depth+1, left); err != nil {
			return felt.Zero(), err
		}
		if newRight, err = t.update(rightHash, depth+1, right); err != nil {
			return felt.Zero(), err
		}
	}

	if newLeft.IsZero() && newRight.IsZero() {
		return felt.Zero(), nil
	}
	branchHash := t.hasher.Hash(newLeft, newRight)
	encoded := make([]byte, 0, 2*felt.Bytes)
	encoded = append(encoded, newLeft.Marshal()...)
	encoded = append(encoded, newRight.Marshal()...)

	t.batchMutex.Lock()
	t.writeBatch[branchHash] = encoded
	t.batchMutex.Unlock()
	return branchHash, nil
}

// Get returns the committed value at key, zero if absent. Staged writes are
// not visible.
func (t *Trie) Get(key felt.Felt) (felt.Felt, error) {
	h := t.rootHash
	keyBytes := key.Bytes()
	for depth := 0; depth < t.height; depth++ {
		if h.IsZero() {
			return felt.Zero(), nil
		}
		leftHash, rightHash, err := t.children(h)
		if err != nil {
			return felt.Zero(), err
		}
		if t.bit(keyBytes, depth) {
			h = rightHash
		} else {
			h = leftHash
		}
	}
	return h, nil
}

// children resolves a branch node into its child hashes. The zero hash is
// the empty subtree.
func (t *Trie) children(h felt.Felt) (felt.Felt, felt.Felt, error) {
	if h.IsZero() {
		return felt.Zero(), felt.Zero(), nil
	}
	if t.writeBatch != nil {
		t.batchMutex.Lock()
		data, ok := t.writeBatch[h]
		t.batchMutex.Unlock()
		if ok {
			return felt.FromBytes(data[:felt.Bytes]), felt.FromBytes(data[felt.Bytes:]), nil
		}
	}
	data, found, err := t.store.GetNode(h)
	if err != nil {
		return felt.Zero(), felt.Zero(), err
	}
	if !found {
		return felt.Zero(), felt.Zero(), fmt.Errorf("missing trie node %s", h)
	}
	if len(data) != 2*felt.Bytes {
		return felt.Zero(), felt.Zero(), fmt.Errorf("corrupt trie node %s: %d bytes", h, len(data))
	}
	return felt.FromBytes(data[:felt.Bytes]), felt.FromBytes(data[felt.Bytes:]), nil
}

// bit returns the key bit steering the branch at the given depth, most
// significant key bit first. Keys must fit in the trie height.
func (t *Trie) bit(key [felt.Bytes]byte, depth int) bool {
	abs := 8*felt.Bytes - t.height + depth
	mask := byte(1 << (7 - abs%8))
	return key[abs/8]&mask != 0
}
