package felt

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromHex(t *testing.T) {
	f, err := FromHex("0x1")
	require.NoError(t, err)
	require.Equal(t, New(1), f)

	f, err = FromHex("0xdeadbeef")
	require.NoError(t, err)
	require.Equal(t, New(0xdeadbeef), f)

	_, err = FromHex("nothex")
	require.Error(t, err)

	// one above the modulus must be rejected, not reduced
	_, err = FromHex("0x800000000000011000000000000000000000000000000000000000000000002")
	require.Error(t, err)
}

func TestZero(t *testing.T) {
	require.True(t, Zero().IsZero())
	require.False(t, New(1).IsZero())
	require.Equal(t, "0x0", Zero().Hex())
}

func TestBytesRoundTrip(t *testing.T) {
	f := MustFromHex("0x535441524b4e45545f53544154455f5630")
	b := f.Bytes()
	require.Equal(t, f, FromBytes(b[:]))
	require.Equal(t, b[:], f.Marshal())
}

func TestFromString(t *testing.T) {
	// chain id convention: raw ASCII bytes as a big-endian integer
	require.Equal(t, MustFromHex("0x534e5f4d41494e"), FromString("SN_MAIN"))
}

func TestJSON(t *testing.T) {
	f := MustFromHex("0x7b")
	out, err := json.Marshal(f)
	require.NoError(t, err)
	require.Equal(t, `"0x7b"`, string(out))

	var back Felt
	require.NoError(t, json.Unmarshal(out, &back))
	require.Equal(t, f, back)

	require.Error(t, json.Unmarshal([]byte(`123`), &back))
}

func TestMapKey(t *testing.T) {
	m := map[Felt]int{New(1): 1, New(2): 2}
	require.Equal(t, 1, m[MustFromHex("0x1")])
	require.Equal(t, 2, m[New(2)])
}
