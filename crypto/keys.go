package crypto

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/btcsuite/btcutil/base58"
)

// PubkeyLength is the width of every identity stored on chain.
const PubkeyLength = 32

// Pubkey identifies an account. It is either an ed25519 public key or a
// program derived address that no private key controls.
type Pubkey [PubkeyLength]byte

// SystemProgramID is the all-zero identity of the host allocation program.
var SystemProgramID = Pubkey{}

func NewPubkey(b []byte) (Pubkey, error) {
	var pk Pubkey
	if len(b) != PubkeyLength {
		return pk, fmt.Errorf("crypto: pubkey must be %d bytes, got %d", PubkeyLength, len(b))
	}
	copy(pk[:], b)
	return pk, nil
}

// MustPubkey decodes a base58 identity and panics on malformed input. It is
// meant for compile-time constants such as program IDs.
func MustPubkey(s string) Pubkey {
	pk, err := DecodePubkey(s)
	if err != nil {
		panic(err)
	}
	return pk
}

// DecodePubkey parses the base58 text form of an identity.
func DecodePubkey(s string) (Pubkey, error) {
	decoded := base58.Decode(s)
	if len(decoded) == 0 && s != "" {
		return Pubkey{}, fmt.Errorf("crypto: invalid base58 pubkey %q", s)
	}
	return NewPubkey(decoded)
}

func (p Pubkey) String() string {
	return base58.Encode(p[:])
}

func (p Pubkey) Bytes() []byte {
	return append([]byte(nil), p[:]...)
}

func (p Pubkey) IsZero() bool {
	return p == Pubkey{}
}

func (p Pubkey) Equal(other Pubkey) bool {
	return bytes.Equal(p[:], other[:])
}

// MarshalText implements encoding.TextMarshaler so identities render as
// base58 in JSON and TOML.
func (p Pubkey) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Pubkey) UnmarshalText(text []byte) error {
	decoded, err := DecodePubkey(string(text))
	if err != nil {
		return err
	}
	*p = decoded
	return nil
}

// --- Key Management ---

type PrivateKey struct {
	key ed25519.PrivateKey
}

func GeneratePrivateKey() (*PrivateKey, error) {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key: key}, nil
}

// PrivateKeyFromSeed rebuilds a key from its 32-byte seed.
func PrivateKeyFromSeed(seed []byte) (*PrivateKey, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("crypto: seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return &PrivateKey{key: ed25519.NewKeyFromSeed(seed)}, nil
}

// Seed returns the 32-byte seed the key was derived from.
func (k *PrivateKey) Seed() []byte {
	return k.key.Seed()
}

func (k *PrivateKey) PubKey() Pubkey {
	var pk Pubkey
	copy(pk[:], k.key.Public().(ed25519.PublicKey))
	return pk
}

func (k *PrivateKey) Sign(message []byte) []byte {
	return ed25519.Sign(k.key, message)
}

// Verify reports whether sig is a valid signature of message by signer.
func Verify(signer Pubkey, message, sig []byte) bool {
	if len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(signer[:]), message, sig)
}
