package storage

import (
	"encoding/json"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/halcyonlabs/starknode/felt"
)

// ContractState is one contract's committed state: what the contract-trie
// leaf for it is derived from.
type ContractState struct {
	ClassHash   felt.Felt `json:"class_hash"`
	Nonce       felt.Felt `json:"nonce"`
	StorageRoot felt.Felt `json:"storage_root"`
}

// GetContractState returns the stored state of a contract, or nil if the
// contract has never been deployed.
func (b *Backend) GetContractState(address felt.Felt) (*ContractState, error) {
	var state ContractState
	found, err := b.getJSON(feltKey(prefixContractState, address.Marshal()), &state)
	if err != nil || !found {
		return nil, err
	}
	return &state, nil
}

// PutContractStates writes updated contract states in one batch.
func (b *Backend) PutContractStates(states map[felt.Felt]ContractState) error {
	batch := new(leveldb.Batch)
	for address, state := range states {
		data, err := json.Marshal(state)
		if err != nil {
			return err
		}
		batch.Put(feltKey(prefixContractState, address.Marshal()), data)
	}
	return b.db.WriteBatch(batch)
}

// TrieStore is a name-prefixed node store for one commitment trie. Node data
// is content-addressed, so redundant writes are harmless.
type TrieStore struct {
	db     *PersistenceStore
	prefix []byte
}

// TrieStore scopes trie node and root persistence under the given trie name.
func (b *Backend) TrieStore(name string) *TrieStore {
	return &TrieStore{db: b.db, prefix: append(append([]byte{}, prefixTrieNode...), []byte(name+"/")...)}
}

func (t *TrieStore) GetNode(hash felt.Felt) ([]byte, bool, error) {
	return t.db.Get(feltKey(t.prefix, hash.Marshal()))
}

func (t *TrieStore) PutNodes(nodes map[felt.Felt][]byte) error {
	batch := new(leveldb.Batch)
	for hash, data := range nodes {
		batch.Put(feltKey(t.prefix, hash.Marshal()), data)
	}
	return t.db.WriteBatch(batch)
}

// GetTrieRoot returns the stored root for a named trie; zero if never
// committed.
func (b *Backend) GetTrieRoot(name string) (felt.Felt, error) {
	data, found, err := b.db.Get(feltKey(prefixTrieRoot, []byte(name)))
	if err != nil || !found {
		return felt.Zero(), err
	}
	if len(data) != felt.Bytes {
		return felt.Zero(), fmt.Errorf("corrupt trie root for %q: %d bytes", name, len(data))
	}
	return felt.FromBytes(data), nil
}

func (b *Backend) PutTrieRoot(name string, root felt.Felt) error {
	return b.db.Put(feltKey(prefixTrieRoot, []byte(name)), root.Marshal())
}
