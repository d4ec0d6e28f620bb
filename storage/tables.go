package storage

import "encoding/binary"

// Key layout. The pending tier lives entirely under "pnd/" so that clearing
// it is one range delete.
var (
	keyLatestBlock = []byte("meta/latest")

	prefixBlockInfo  = []byte("blk/info/")
	prefixBlockInner = []byte("blk/inner/")
	prefixStateDiff  = []byte("blk/diff/")
	prefixBlockHash  = []byte("blk/hash/")

	prefixClassInfo     = []byte("cls/info/")
	prefixClassCompiled = []byte("cls/comp/")

	prefixPending              = []byte("pnd/")
	keyPendingBlockInfo        = []byte("pnd/blk/info")
	keyPendingBlockInner       = []byte("pnd/blk/inner")
	keyPendingStateDiff        = []byte("pnd/blk/diff")
	prefixPendingClassInfo     = []byte("pnd/cls/info/")
	prefixPendingClassCompiled = []byte("pnd/cls/comp/")

	prefixContractState = []byte("ctr/state/")
	prefixTrieNode      = []byte("trie/node/")
	prefixTrieRoot      = []byte("trie/root/")
)

func encodeBlockNumber(n uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], n)
	return b[:]
}

func numberedKey(prefix []byte, n uint64) []byte {
	return append(append([]byte{}, prefix...), encodeBlockNumber(n)...)
}

func feltKey(prefix []byte, f []byte) []byte {
	return append(append([]byte{}, prefix...), f...)
}
