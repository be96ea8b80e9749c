package farmer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"farmercore/core/pda"
	"farmercore/crypto"
)

func TestSeedTagsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, tag := range SeedTags() {
		if seen[string(tag)] {
			t.Fatalf("duplicate seed tag %q", tag)
		}
		seen[string(tag)] = true
	}
	require.Len(t, seen, 9)
}

func TestConfigAddressDeterministic(t *testing.T) {
	a, bumpA, err := ConfigAddress(ProgramID)
	require.NoError(t, err)
	b, bumpB, err := ConfigAddress(ProgramID)
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.Equal(t, bumpA, bumpB)
	require.False(t, pda.IsOnCurve(a))

	direct, err := pda.CreateProgramAddress([][]byte{SeedConfig, {bumpA}}, ProgramID)
	require.NoError(t, err)
	require.Equal(t, a, direct)

	other, _, err := ConfigAddress(crypto.Pubkey{0x42})
	require.NoError(t, err)
	require.NotEqual(t, a, other)
}

func TestDeriveAddressTagsDoNotCollide(t *testing.T) {
	key := crypto.Pubkey{0x07}
	seen := make(map[crypto.Pubkey][]byte)
	for _, tag := range SeedTags() {
		addr, _, err := DeriveAddress(ProgramID, tag, key[:])
		require.NoError(t, err)
		if prev, ok := seen[addr]; ok {
			t.Fatalf("tags %q and %q derive the same address", prev, tag)
		}
		seen[addr] = tag
	}
}

func TestDeriveAddressRejectsEmptyTag(t *testing.T) {
	_, _, err := DeriveAddress(ProgramID, nil)
	require.Error(t, err)
}
