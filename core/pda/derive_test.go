package pda

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"farmercore/crypto"
)

var testProgramID = crypto.MustPubkey("5NzjPYN5PUGNVkTRfh8naDqD7K3hTQbYyZb5YhtCArxV")

func TestFindProgramAddressDeterministic(t *testing.T) {
	seeds := [][]byte{[]byte("config")}

	first, firstBump, err := FindProgramAddress(seeds, testProgramID)
	require.NoError(t, err)
	second, secondBump, err := FindProgramAddress(seeds, testProgramID)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, firstBump, secondBump)
	require.False(t, IsOnCurve(first))
}

func TestFindProgramAddressMatchesCreateWithBump(t *testing.T) {
	seeds := [][]byte{[]byte("farmer"), bytes.Repeat([]byte{0x07}, 32)}
	addr, bump, err := FindProgramAddress(seeds, testProgramID)
	require.NoError(t, err)

	recreated, err := CreateProgramAddress(append(seeds, []byte{bump}), testProgramID)
	require.NoError(t, err)
	require.Equal(t, addr, recreated)
}

func TestFindProgramAddressReturnsHighestViableBump(t *testing.T) {
	seeds := [][]byte{[]byte("escrow")}
	_, bump, err := FindProgramAddress(seeds, testProgramID)
	require.NoError(t, err)

	for candidate := 255; candidate > int(bump); candidate-- {
		_, err := CreateProgramAddress(append(seeds, []byte{uint8(candidate)}), testProgramID)
		if !errors.Is(err, ErrOnCurve) {
			t.Fatalf("bump %d should have been on curve, got %v", candidate, err)
		}
	}
}

func TestProgramIDChangesAddress(t *testing.T) {
	seeds := [][]byte{[]byte("config")}
	other := crypto.Pubkey{0x01}

	a, _, err := FindProgramAddress(seeds, testProgramID)
	require.NoError(t, err)
	b, _, err := FindProgramAddress(seeds, other)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestCreateProgramAddressRejectsOversizedSeeds(t *testing.T) {
	_, err := CreateProgramAddress([][]byte{bytes.Repeat([]byte{1}, MaxSeedLen+1)}, testProgramID)
	require.ErrorIs(t, err, ErrInvalidSeeds)

	tooMany := make([][]byte, MaxSeeds+1)
	_, err = CreateProgramAddress(tooMany, testProgramID)
	require.ErrorIs(t, err, ErrInvalidSeeds)

	_, _, err = FindProgramAddress(make([][]byte, MaxSeeds), testProgramID)
	require.ErrorIs(t, err, ErrInvalidSeeds)
}

func TestKeypairAddressesAreOnCurve(t *testing.T) {
	for i := 0; i < 8; i++ {
		key, err := crypto.GeneratePrivateKey()
		require.NoError(t, err)
		if !IsOnCurve(key.PubKey()) {
			t.Fatalf("ed25519 public key %s reported off curve", key.PubKey())
		}
	}
}

func TestFindProgramAddressKnownVector(t *testing.T) {
	programID := crypto.MustPubkey("11111111111111111111111111111111")
	addr, bump, err := FindProgramAddress([][]byte{[]byte("helloWorld")}, programID)
	require.NoError(t, err)
	require.Equal(t, "46GZzzetjCURsdFPb7rcnspbEMnCBXe9kpjrsZAkKb6X", addr.String())
	require.Equal(t, uint8(254), bump)

	_, err = CreateProgramAddress([][]byte{[]byte("helloWorld"), {255}}, programID)
	require.ErrorIs(t, err, ErrOnCurve)
}

func TestFindProgramAddressExhaustsBumps(t *testing.T) {
	probed := make(map[crypto.Pubkey]struct{})
	original := onCurve
	onCurve = func(addr crypto.Pubkey) bool {
		probed[addr] = struct{}{}
		return true
	}
	t.Cleanup(func() { onCurve = original })

	_, _, err := FindProgramAddress([][]byte{[]byte("config")}, testProgramID)
	require.ErrorIs(t, err, ErrBumpSeedNotFound)
	require.Len(t, probed, 256)
}
