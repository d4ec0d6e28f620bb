package blockimport

import (
	"github.com/halcyonlabs/starknode/felt"
	"github.com/halcyonlabs/starknode/log"
	"github.com/halcyonlabs/starknode/types"
)

// classTrieRoot applies the block's class declarations and returns the new
// class-trie root. Legacy (Cairo 0) declarations never enter the class trie:
// only Sierra classes carry a compiled class hash to commit to.
func (v *VerifyApply) classTrieRoot(declared []types.DeclaredClassItem, blockNumber uint64) (felt.Felt, error) {
	for _, class := range declared {
		leaf := v.hasher.Hash(classLeafPrefix, class.CompiledClassHash)
		v.classesTrie.trie.Stage(class.ClassHash, leaf)
	}
	root, err := v.classesTrie.commit()
	if err != nil {
		return felt.Zero(), err
	}
	log.Trace(log.Commitment, "class trie updated", "n", blockNumber, "declared", len(declared), "root", root)
	return root, nil
}
