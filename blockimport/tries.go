package blockimport

import (
	"golang.org/x/sync/errgroup"

	"github.com/halcyonlabs/starknode/chainspec"
	"github.com/halcyonlabs/starknode/crypto"
	"github.com/halcyonlabs/starknode/felt"
	"github.com/halcyonlabs/starknode/storage"
	"github.com/halcyonlabs/starknode/trie"
	"github.com/halcyonlabs/starknode/types"
)

const (
	trieNameContracts = "contracts"
	trieNameClasses   = "classes"
)

// stateVersionPrefix is the domain-separation constant for the global state
// commitment, "STARKNET_STATE_V0" as a felt
// (0x535441524b4e45545f53544154455f5630).
var stateVersionPrefix = felt.FromString("STARKNET_STATE_V0")

// classLeafPrefix is the domain-separation constant for class trie leaves,
// "CONTRACT_CLASS_LEAF_V0" as a felt.
var classLeafPrefix = felt.FromString("CONTRACT_CLASS_LEAF_V0")

// commitmentTrie pairs a trie with its persisted root so it survives
// restarts.
type commitmentTrie struct {
	name    string
	backend *storage.Backend
	trie    *trie.Trie
}

func openCommitmentTrie(backend *storage.Backend, hasher crypto.StarkHasher, name string) (*commitmentTrie, error) {
	root, err := backend.GetTrieRoot(name)
	if err != nil {
		return nil, makeStorageError("loading trie root")(err)
	}
	return &commitmentTrie{
		name:    name,
		backend: backend,
		trie:    trie.New(trie.DefaultHeight, hasher, backend.TrieStore(name), root),
	}, nil
}

func (c *commitmentTrie) commit() (felt.Felt, error) {
	root, err := c.trie.Commit()
	if err != nil {
		return felt.Zero(), err
	}
	return root, c.backend.PutTrieRoot(c.name, root)
}

// calculateStateRoot combines the two trie roots into the global state root.
func calculateStateRoot(hasher crypto.StarkHasher, contractsRoot, classesRoot felt.Felt) felt.Felt {
	if classesRoot.IsZero() {
		return contractsRoot
	}
	return hasher.HashArray(stateVersionPrefix, contractsRoot, classesRoot)
}

// updateTries applies the block's state diff to the contract and class tries
// and returns the new global state root. With TrustGlobalTries set no
// computation happens and the asserted root is returned verbatim.
func (v *VerifyApply) updateTries(block *types.PreValidatedBlock, validation chainspec.ValidationContext, blockNumber uint64) (felt.Felt, error) {
	if validation.TrustGlobalTries {
		if block.UnverifiedGlobalStateRoot == nil {
			return felt.Zero(), errInternal("trusted-trie import requires an unverified global state root")
		}
		return *block.UnverifiedGlobalStateRoot, nil
	}

	// The two updates touch disjoint key spaces: contract addresses never
	// collide with class hashes as trie keys because each lives in its own
	// trie.
	var contractsRoot, classesRoot felt.Felt
	g := errgroup.Group{}
	g.Go(func() error {
		root, err := v.contractTrieRoot(&block.StateDiff, blockNumber)
		if err != nil {
			return makeStorageError("updating contract trie root")(err)
		}
		contractsRoot = root
		return nil
	})
	g.Go(func() error {
		root, err := v.classTrieRoot(block.StateDiff.DeclaredClasses, blockNumber)
		if err != nil {
			return makeStorageError("updating class trie root")(err)
		}
		classesRoot = root
		return nil
	})
	if err := g.Wait(); err != nil {
		return felt.Zero(), err
	}

	stateRoot := calculateStateRoot(v.hasher, contractsRoot, classesRoot)
	if block.UnverifiedGlobalStateRoot != nil && !block.UnverifiedGlobalStateRoot.Equal(stateRoot) {
		return felt.Zero(), errGlobalStateRoot(*block.UnverifiedGlobalStateRoot, stateRoot)
	}
	return stateRoot, nil
}
