// Package crypto is the hashing collaborator surface of the import pipeline.
// The pipeline itself never fixes a hash function: it is handed a StarkHasher
// and reproduces the target network's reference commitments bit-for-bit
// exactly insofar as the injected hasher does.
package crypto

import (
	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
	pedersenhash "github.com/consensys/gnark-crypto/ecc/stark-curve/pedersen-hash"

	"github.com/halcyonlabs/starknode/felt"
)

// StarkHasher is a Poseidon-family hash over field elements. Production
// wiring binds the target network's reference implementation; tests may
// substitute any deterministic instance.
type StarkHasher interface {
	// Hash compresses a pair of elements.
	Hash(a, b felt.Felt) felt.Felt
	// HashArray hashes a sequence of elements, length-dependent: sequences
	// of different lengths never collide by construction.
	HashArray(elems ...felt.Felt) felt.Felt
}

// PedersenHasher is a StarkHasher over the Stark curve's Pedersen hash.
type PedersenHasher struct{}

func fromElement(e fp.Element) felt.Felt {
	b := e.Bytes()
	return felt.FromBytes(b[:])
}

func (PedersenHasher) Hash(a, b felt.Felt) felt.Felt {
	return fromElement(pedersenhash.Pedersen(a.Impl(), b.Impl()))
}

func (PedersenHasher) HashArray(elems ...felt.Felt) felt.Felt {
	ptrs := make([]*fp.Element, len(elems))
	for i := range elems {
		ptrs[i] = elems[i].Impl()
	}
	return fromElement(pedersenhash.PedersenArray(ptrs...))
}
