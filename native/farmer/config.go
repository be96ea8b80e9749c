package farmer

import (
	"bytes"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	sha256 "github.com/minio/sha256-simd"

	ferrors "farmercore/core/errors"
	"farmercore/crypto"
)

// Capacity limits. Only MaxAllowedMints is used by the config record; the
// others bound the text fields of the entity records that follow it.
const (
	MaxNameLen      = 100
	MaxURILen       = 200
	MaxNotesLen     = 500
	MaxZipPrefixes  = 100
	MaxAllowedMints = 50
)

// DiscriminatorLen is the width of the type tag prefixing every record.
const DiscriminatorLen = 8

// ProgramConfigSize is the allocation reserved for the config record: the
// worst case, whatever the actual allowlist length.
const ProgramConfigSize = DiscriminatorLen +
	crypto.PubkeyLength + // admin
	crypto.PubkeyLength + // fee wallet
	1 + // paused
	4 + crypto.PubkeyLength*MaxAllowedMints // allowed mints

const (
	pausedOffset       = DiscriminatorLen + 2*crypto.PubkeyLength
	allowlistLenOffset = pausedOffset + 1
)

var programConfigDiscriminator = accountDiscriminator("ProgramConfig")

func accountDiscriminator(name string) [DiscriminatorLen]byte {
	return discriminator("account:" + name)
}

func discriminator(preimage string) [DiscriminatorLen]byte {
	var out [DiscriminatorLen]byte
	sum := sha256.Sum256([]byte(preimage))
	copy(out[:], sum[:DiscriminatorLen])
	return out
}

// ProgramConfig is the global configuration record.
type ProgramConfig struct {
	Admin     crypto.Pubkey
	FeeWallet crypto.Pubkey
	Paused    bool
	// AllowedPaymentTokens keeps insertion order and tolerates duplicates. An
	// empty list means no allowlist is enforced.
	AllowedPaymentTokens []crypto.Pubkey
}

// MarshalAccount encodes the record into a buffer of exactly
// ProgramConfigSize bytes. An allowlist above MaxAllowedMints is rejected,
// never truncated.
func (c *ProgramConfig) MarshalAccount() ([]byte, error) {
	if len(c.AllowedPaymentTokens) > MaxAllowedMints {
		return nil, fmt.Errorf("%w: %d entries, max %d", ferrors.ErrCapacityExceeded, len(c.AllowedPaymentTokens), MaxAllowedMints)
	}
	buf := bytes.NewBuffer(make([]byte, 0, ProgramConfigSize))
	buf.Write(programConfigDiscriminator[:])
	body := *c
	if body.AllowedPaymentTokens == nil {
		body.AllowedPaymentTokens = []crypto.Pubkey{}
	}
	if err := bin.NewBorshEncoder(buf).Encode(&body); err != nil {
		return nil, fmt.Errorf("farmer: encode config: %w", err)
	}
	out := make([]byte, ProgramConfigSize)
	copy(out, buf.Bytes())
	return out, nil
}

// UnmarshalProgramConfig decodes an account buffer written by MarshalAccount.
func UnmarshalProgramConfig(data []byte) (*ProgramConfig, error) {
	if len(data) < ProgramConfigSize {
		return nil, fmt.Errorf("farmer: config account holds %d bytes, want %d", len(data), ProgramConfigSize)
	}
	if !bytes.Equal(data[:DiscriminatorLen], programConfigDiscriminator[:]) {
		return nil, ferrors.ErrAccountDiscriminatorMismatch
	}
	if flag := data[pausedOffset]; flag > 1 {
		return nil, fmt.Errorf("%w: paused byte %#x", ferrors.ErrAccountDidNotDeserialize, flag)
	}
	if n := binary.LittleEndian.Uint32(data[allowlistLenOffset:]); n > MaxAllowedMints {
		return nil, fmt.Errorf("%w: stored allowlist length %d", ferrors.ErrCapacityExceeded, n)
	}
	cfg := new(ProgramConfig)
	if err := bin.NewBorshDecoder(data[DiscriminatorLen:]).Decode(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ferrors.ErrAccountDidNotDeserialize, err)
	}
	if cfg.AllowedPaymentTokens == nil {
		cfg.AllowedPaymentTokens = []crypto.Pubkey{}
	}
	return cfg, nil
}

// IsPaused reports the global pause flag. The module argument exists so the
// record satisfies common.PauseView; a single flag covers every module.
func (c *ProgramConfig) IsPaused(string) bool {
	return c != nil && c.Paused
}
