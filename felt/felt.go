// Package felt implements the 252-bit Stark prime-field element used as the
// universal hash, address, and commitment type across the node.
package felt

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Bytes is the encoded length of a field element.
const Bytes = fp.Bytes

// Felt wraps a stark-curve base field element in Montgomery form. The zero
// value is the field's zero element. Felt is comparable and can be used as a
// map key.
type Felt struct {
	val fp.Element
}

var zero = Felt{}

// Zero returns the additive identity, used for empty trie roots and the
// genesis parent hash.
func Zero() Felt {
	return zero
}

func New(v uint64) Felt {
	var f Felt
	f.val.SetUint64(v)
	return f
}

// FromBytes interprets b as a big-endian integer and reduces it mod p.
func FromBytes(b []byte) Felt {
	var f Felt
	f.val.SetBytes(b)
	return f
}

// FromHex parses a 0x-prefixed hex string into a field element.
func FromHex(s string) (Felt, error) {
	bi, err := hexutil.DecodeBig(s)
	if err != nil {
		return zero, fmt.Errorf("felt: %w", err)
	}
	if bi.Cmp(fp.Modulus()) >= 0 {
		return zero, fmt.Errorf("felt: %s overflows field modulus", s)
	}
	var f Felt
	f.val.SetBigInt(bi)
	return f, nil
}

// MustFromHex is FromHex for package-level constants; it panics on bad input.
func MustFromHex(s string) Felt {
	f, err := FromHex(s)
	if err != nil {
		panic(err)
	}
	return f
}

// FromString encodes the raw bytes of a short ASCII string as a field element,
// the convention used for chain identifiers and domain-separation prefixes.
func FromString(s string) Felt {
	return FromBytes([]byte(s))
}

func (f Felt) IsZero() bool {
	return f.val.IsZero()
}

func (f Felt) Equal(other Felt) bool {
	return f.val.Equal(&other.val)
}

func (f Felt) Cmp(other Felt) int {
	return f.val.Cmp(&other.val)
}

// Bytes returns the canonical big-endian encoding.
func (f Felt) Bytes() [Bytes]byte {
	return f.val.Bytes()
}

// Marshal returns the big-endian encoding as a slice, for use as a database
// key.
func (f Felt) Marshal() []byte {
	b := f.val.Bytes()
	return b[:]
}

// Impl exposes the underlying gnark element for hashing collaborators.
func (f *Felt) Impl() *fp.Element {
	return &f.val
}

func (f Felt) BigInt() *big.Int {
	return f.val.BigInt(new(big.Int))
}

// Hex returns the shortest 0x-prefixed hex representation.
func (f Felt) Hex() string {
	return "0x" + f.val.Text(16)
}

func (f Felt) String() string {
	return f.Hex()
}

func (f Felt) MarshalText() ([]byte, error) {
	return []byte(f.Hex()), nil
}

func (f *Felt) UnmarshalText(data []byte) error {
	parsed, err := FromHex(string(data))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

func (f Felt) MarshalJSON() ([]byte, error) {
	return []byte(`"` + f.Hex() + `"`), nil
}

func (f *Felt) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("felt: expected quoted hex string, got %s", data)
	}
	return f.UnmarshalText(data[1 : len(data)-1])
}
