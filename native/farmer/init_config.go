package farmer

import (
	"fmt"

	ferrors "farmercore/core/errors"
	"farmercore/core/events"
	"farmercore/crypto"
)

// engineContext is the subset of the runtime invoke context the engine needs.
type engineContext interface {
	ProgramID() crypto.Pubkey
	IsSigner(crypto.Pubkey) bool
	CreateAccount(payer, addr crypto.Pubkey, space uint64) error
	WriteAccountData(addr crypto.Pubkey, data []byte) error
	Log(format string, args ...any)
	Emit(events.Event)
}

// InitializeAccounts are the accounts the initialize instruction operates on.
type InitializeAccounts struct {
	Config      crypto.Pubkey
	Admin       crypto.Pubkey
	AdminSigned bool
}

// Engine holds the marketplace business logic. It is stateless: every call
// reads and writes through the supplied context.
type Engine struct{}

// NewEngine returns the marketplace engine.
func NewEngine() *Engine {
	return &Engine{}
}

// InitializeConfig creates the singleton config record. It succeeds at most
// once per deployment; later calls fail because the address is occupied.
func (e *Engine) InitializeConfig(ctx engineContext, accounts InitializeAccounts, args InitializeArgs) error {
	configAddr, bump, err := ConfigAddress(ctx.ProgramID())
	if err != nil {
		return err
	}
	if accounts.Config != configAddr {
		return fmt.Errorf("%w: got %s, want %s", ferrors.ErrSeedsMismatch, accounts.Config, configAddr)
	}
	if err := requireSigner(ctx, accounts.Admin, accounts.AdminSigned); err != nil {
		return err
	}
	if err := ValidateInitialize(args); err != nil {
		return err
	}

	cfg := &ProgramConfig{
		Admin:                accounts.Admin,
		FeeWallet:            args.FeeWallet,
		Paused:               args.Paused,
		AllowedPaymentTokens: append([]crypto.Pubkey{}, args.AllowedPaymentTokens...),
	}
	data, err := cfg.MarshalAccount()
	if err != nil {
		return err
	}
	if err := ctx.CreateAccount(accounts.Admin, configAddr, ProgramConfigSize); err != nil {
		return err
	}
	if err := ctx.WriteAccountData(configAddr, data); err != nil {
		return err
	}

	ctx.Log("Program config initialized")
	ctx.Log("Admin: %s", cfg.Admin)
	ctx.Log("Fee wallet: %s", cfg.FeeWallet)
	ctx.Log("Paused: %t", cfg.Paused)
	ctx.Log("Allowed mints: %d", len(cfg.AllowedPaymentTokens))
	ctx.Emit(ConfigInitialized{
		Address:              configAddr,
		Bump:                 bump,
		Admin:                cfg.Admin,
		FeeWallet:            cfg.FeeWallet,
		Paused:               cfg.Paused,
		AllowedPaymentTokens: len(cfg.AllowedPaymentTokens),
	})
	return nil
}
