// Package pda derives program addresses: deterministic account identities that
// fall off the ed25519 curve, so no private key can sign for them.
package pda

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	sha256 "github.com/minio/sha256-simd"

	"farmercore/crypto"
)

const (
	// MaxSeeds bounds the number of seed components, bump included.
	MaxSeeds = 16
	// MaxSeedLen bounds the width of a single seed component.
	MaxSeedLen = 32
)

var derivationMarker = []byte("ProgramDerivedAddress")

// onCurve is swapped out in tests that need every bump to fail.
var onCurve = IsOnCurve

var (
	// ErrInvalidSeeds marks seed sets that exceed MaxSeeds or MaxSeedLen.
	ErrInvalidSeeds = errors.New("pda: invalid seeds")
	// ErrOnCurve is returned when the digest is a valid ed25519 point.
	ErrOnCurve = errors.New("pda: derived address lies on the ed25519 curve")
	// ErrBumpSeedNotFound is returned when none of the 256 bump values yield
	// an off-curve address.
	ErrBumpSeedNotFound = errors.New("pda: unable to find a viable bump seed")
)

// CreateProgramAddress hashes seeds and programID into an address. It fails
// with ErrOnCurve when the result could be controlled by a key holder.
func CreateProgramAddress(seeds [][]byte, programID crypto.Pubkey) (crypto.Pubkey, error) {
	if len(seeds) > MaxSeeds {
		return crypto.Pubkey{}, fmt.Errorf("%w: %d seeds exceeds %d", ErrInvalidSeeds, len(seeds), MaxSeeds)
	}
	h := sha256.New()
	for i, seed := range seeds {
		if len(seed) > MaxSeedLen {
			return crypto.Pubkey{}, fmt.Errorf("%w: seed %d is %d bytes", ErrInvalidSeeds, i, len(seed))
		}
		h.Write(seed)
	}
	h.Write(programID[:])
	h.Write(derivationMarker)

	var addr crypto.Pubkey
	copy(addr[:], h.Sum(nil))
	if onCurve(addr) {
		return crypto.Pubkey{}, ErrOnCurve
	}
	return addr, nil
}

// FindProgramAddress probes bump values from 255 down to 0 and returns the
// first off-curve address together with the bump that produced it. The
// result is a pure function of seeds and programID.
func FindProgramAddress(seeds [][]byte, programID crypto.Pubkey) (crypto.Pubkey, uint8, error) {
	if len(seeds) >= MaxSeeds {
		return crypto.Pubkey{}, 0, fmt.Errorf("%w: no room for a bump seed", ErrInvalidSeeds)
	}
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)
	bump := []byte{0}
	withBump[len(seeds)] = bump

	for candidate := 255; candidate >= 0; candidate-- {
		bump[0] = uint8(candidate)
		addr, err := CreateProgramAddress(withBump, programID)
		if err == nil {
			return addr, uint8(candidate), nil
		}
		if !errors.Is(err, ErrOnCurve) {
			return crypto.Pubkey{}, 0, err
		}
	}
	return crypto.Pubkey{}, 0, ErrBumpSeedNotFound
}

// IsOnCurve reports whether addr decodes to a point on edwards25519.
func IsOnCurve(addr crypto.Pubkey) bool {
	_, err := new(edwards25519.Point).SetBytes(addr[:])
	return err == nil
}
