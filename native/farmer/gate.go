package farmer

import (
	"fmt"

	ferrors "farmercore/core/errors"
	"farmercore/crypto"
	"farmercore/native/common"
)

const moduleName = "farmer"

// ValidateInitialize checks the caller-supplied arguments before any storage
// is touched. Fee wallet and token identifiers are opaque and pass through.
func ValidateInitialize(args InitializeArgs) error {
	if n := len(args.AllowedPaymentTokens); n > MaxAllowedMints {
		return fmt.Errorf("%w: %d entries, max %d", ferrors.ErrCapacityExceeded, n, MaxAllowedMints)
	}
	return nil
}

type signerView interface {
	IsSigner(crypto.Pubkey) bool
}

// requireSigner fails unless meta is flagged as a signer and the runtime
// verified its signature.
func requireSigner(ctx signerView, pk crypto.Pubkey, flagged bool) error {
	if !flagged || !ctx.IsSigner(pk) {
		return fmt.Errorf("%w: %s", ferrors.ErrMissingSigner, pk)
	}
	return nil
}

// RequireNotPaused refuses to proceed while the config record is paused.
func RequireNotPaused(cfg *ProgramConfig) error {
	return common.Guard(cfg, moduleName)
}

// RequireAdmin checks that signer is the configured admin and signed.
func RequireAdmin(ctx signerView, cfg *ProgramConfig, signer crypto.Pubkey) error {
	if cfg == nil || cfg.Admin != signer || !ctx.IsSigner(signer) {
		return fmt.Errorf("%w: %s", ferrors.ErrUnauthorized, signer)
	}
	return nil
}

// RequireMintAllowed checks mint against the allowlist. With no allowlist
// configured every mint is accepted.
func RequireMintAllowed(cfg *ProgramConfig, mint crypto.Pubkey) error {
	if cfg == nil || len(cfg.AllowedPaymentTokens) == 0 {
		return nil
	}
	for _, allowed := range cfg.AllowedPaymentTokens {
		if allowed == mint {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ferrors.ErrMintNotAllowed, mint)
}
