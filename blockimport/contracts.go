package blockimport

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/halcyonlabs/starknode/felt"
	"github.com/halcyonlabs/starknode/log"
	"github.com/halcyonlabs/starknode/storage"
	"github.com/halcyonlabs/starknode/trie"
	"github.com/halcyonlabs/starknode/types"
)

// contractUpdate accumulates everything the diff changes on one contract.
type contractUpdate struct {
	classHash *felt.Felt
	nonce     *felt.Felt
	storage   []types.StorageEntry
}

// contractTrieRoot applies deploys, class replacements, nonce updates, and
// storage writes, then returns the new contract-trie root. Per-contract work
// is independent (each touches only its own storage trie and leaf) and runs
// in parallel.
func (v *VerifyApply) contractTrieRoot(diff *types.StateDiff, blockNumber uint64) (felt.Felt, error) {
	updates := make(map[felt.Felt]*contractUpdate)
	get := func(address felt.Felt) *contractUpdate {
		u, ok := updates[address]
		if !ok {
			u = &contractUpdate{}
			updates[address] = u
		}
		return u
	}
	for _, item := range diff.DeployedContracts {
		classHash := item.ClassHash
		get(item.Address).classHash = &classHash
	}
	for _, item := range diff.ReplacedClasses {
		classHash := item.ClassHash
		get(item.ContractAddress).classHash = &classHash
	}
	for _, item := range diff.Nonces {
		nonce := item.Nonce
		get(item.ContractAddress).nonce = &nonce
	}
	for _, item := range diff.StorageDiffs {
		u := get(item.Address)
		u.storage = append(u.storage, item.StorageEntries...)
	}

	addresses := make([]felt.Felt, 0, len(updates))
	for address := range updates {
		addresses = append(addresses, address)
	}

	type leafUpdate struct {
		address felt.Felt
		leaf    felt.Felt
		state   storage.ContractState
	}
	results := make([]leafUpdate, len(addresses))

	g := errgroup.Group{}
	g.SetLimit(runtime.NumCPU())
	for i, address := range addresses {
		g.Go(func() error {
			update := updates[address]

			var state storage.ContractState
			prev, err := v.backend.GetContractState(address)
			if err != nil {
				return err
			}
			if prev != nil {
				state = *prev
			}
			if update.classHash != nil {
				state.ClassHash = *update.classHash
			}
			if update.nonce != nil {
				state.Nonce = *update.nonce
			}
			if len(update.storage) > 0 {
				storageTrie := trie.New(trie.DefaultHeight, v.hasher,
					v.backend.TrieStore("storage/"+address.Hex()), state.StorageRoot)
				for _, entry := range update.storage {
					storageTrie.Stage(entry.Key, entry.Value)
				}
				root, err := storageTrie.Commit()
				if err != nil {
					return err
				}
				state.StorageRoot = root
			}

			results[i] = leafUpdate{address: address, leaf: v.contractLeaf(state), state: state}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return felt.Zero(), err
	}

	newStates := make(map[felt.Felt]storage.ContractState, len(results))
	for _, result := range results {
		v.contractsTrie.trie.Stage(result.address, result.leaf)
		newStates[result.address] = result.state
	}
	root, err := v.contractsTrie.commit()
	if err != nil {
		return felt.Zero(), err
	}
	if err := v.backend.PutContractStates(newStates); err != nil {
		return felt.Zero(), err
	}

	log.Trace(log.Commitment, "contract trie updated", "n", blockNumber, "contracts", len(addresses), "root", root)
	return root, nil
}

// contractLeaf derives the contract-trie leaf from a contract's state:
// H(H(H(class_hash, storage_root), nonce), 0).
func (v *VerifyApply) contractLeaf(state storage.ContractState) felt.Felt {
	h := v.hasher.Hash(state.ClassHash, state.StorageRoot)
	h = v.hasher.Hash(h, state.Nonce)
	return v.hasher.Hash(h, felt.Zero())
}
