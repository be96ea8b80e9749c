package farmer

import (
	"testing"

	"github.com/stretchr/testify/require"

	ferrors "farmercore/core/errors"
	"farmercore/crypto"
)

func TestValidateInitialize(t *testing.T) {
	require.NoError(t, ValidateInitialize(InitializeArgs{}))
	require.NoError(t, ValidateInitialize(InitializeArgs{AllowedPaymentTokens: mints(MaxAllowedMints)}))
	require.ErrorIs(t, ValidateInitialize(InitializeArgs{AllowedPaymentTokens: mints(MaxAllowedMints + 1)}), ferrors.ErrCapacityExceeded)
}

func TestRequireNotPaused(t *testing.T) {
	require.NoError(t, RequireNotPaused(&ProgramConfig{}))
	err := RequireNotPaused(&ProgramConfig{Paused: true})
	require.ErrorIs(t, err, ferrors.ErrPaused)
	require.Contains(t, err.Error(), "farmer")
}

func TestRequireAdmin(t *testing.T) {
	admin := crypto.Pubkey{0xad}
	cfg := &ProgramConfig{Admin: admin}

	require.NoError(t, RequireAdmin(newFakeContext(admin), cfg, admin))
	require.ErrorIs(t, RequireAdmin(newFakeContext(), cfg, admin), ferrors.ErrUnauthorized)

	other := crypto.Pubkey{0x0f}
	require.ErrorIs(t, RequireAdmin(newFakeContext(other), cfg, other), ferrors.ErrUnauthorized)
	require.ErrorIs(t, RequireAdmin(newFakeContext(admin), nil, admin), ferrors.ErrUnauthorized)
}

func TestRequireMintAllowed(t *testing.T) {
	mint := crypto.Pubkey{0x31}
	require.NoError(t, RequireMintAllowed(&ProgramConfig{}, mint), "empty allowlist accepts every mint")

	cfg := &ProgramConfig{AllowedPaymentTokens: []crypto.Pubkey{{0x30}, mint, mint}}
	require.NoError(t, RequireMintAllowed(cfg, mint))
	require.ErrorIs(t, RequireMintAllowed(cfg, crypto.Pubkey{0x32}), ferrors.ErrMintNotAllowed)
}
