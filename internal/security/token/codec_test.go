package token

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintShape(t *testing.T) {
	c := NewCodec([]byte("test-secret"))

	for kind, prefix := range kindPrefix {
		plain, hash, err := c.Mint(kind)
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(plain, prefix), "prefix for %s", kind)
		assert.Len(t, plain, 4+randomLen+checksumLen)
		assert.NotEmpty(t, hash)
		assert.NotContains(t, hash, plain)

		got, err := Classify(plain)
		require.NoError(t, err)
		assert.Equal(t, kind, got)
	}
}

func TestMintUnknownKind(t *testing.T) {
	c := NewCodec([]byte("s"))
	_, _, err := c.Mint(Kind("bogus"))
	require.Error(t, err)
}

func TestClassifyRejectsMalformed(t *testing.T) {
	c := NewCodec([]byte("test-secret"))
	plain, _, err := c.Mint(KindAuthCode)
	require.NoError(t, err)

	cases := map[string]string{
		"empty":            "",
		"unknown prefix":   "zzz_" + plain[4:],
		"truncated":        plain[:len(plain)-1],
		"extended":         plain + "A",
		"bad charset":      plain[:10] + "!" + plain[11:],
		"corrupt checksum": plain[:len(plain)-1] + flip(plain[len(plain)-1]),
		"corrupt body":     plain[:6] + flip(plain[6]) + plain[7:],
	}
	for name, input := range cases {
		_, err := Classify(input)
		assert.ErrorIs(t, err, ErrMalformed, name)
	}
}

// flip returns a different char from the token alphabet.
func flip(b byte) string {
	if b == 'A' {
		return "B"
	}
	return "A"
}

func TestHashIsKeyedAndDeterministic(t *testing.T) {
	a := NewCodec([]byte("key-a"))
	b := NewCodec([]byte("key-b"))

	assert.Equal(t, a.Hash("plc_x"), a.Hash("plc_x"))
	assert.NotEqual(t, a.Hash("plc_x"), b.Hash("plc_x"))
	assert.NotEqual(t, a.Hash("plc_x"), a.Hash("plc_y"))
}

func TestMintUnique(t *testing.T) {
	c := NewCodec([]byte("test-secret"))
	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		plain, _, err := c.Mint(KindAccessIndividual)
		require.NoError(t, err)
		_, dup := seen[plain]
		require.False(t, dup)
		seen[plain] = struct{}{}
	}
}

func TestKindHelpers(t *testing.T) {
	assert.True(t, KindAccessOrg.IsAccess())
	assert.False(t, KindAccessOrg.IsRefresh())
	assert.True(t, KindRefreshIndividual.IsRefresh())
	assert.Equal(t, KindAccessOrg, AccessKindFor(true))
	assert.Equal(t, KindAccessIndividual, AccessKindFor(false))
	assert.Equal(t, KindRefreshOrg, RefreshKindFor(true))
	assert.Equal(t, KindRefreshIndividual, RefreshKindFor(false))
}

func TestConstantTimeEqual(t *testing.T) {
	assert.True(t, ConstantTimeEqual("abc", "abc"))
	assert.False(t, ConstantTimeEqual("abc", "abd"))
	assert.False(t, ConstantTimeEqual("abc", "ab"))
}
