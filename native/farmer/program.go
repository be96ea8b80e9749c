package farmer

import (
	"bytes"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	ferrors "farmercore/core/errors"
	"farmercore/core/runtime"
	"farmercore/core/types"
	"farmercore/crypto"
)

// Program adapts the engine to the runtime dispatch interface.
type Program struct {
	id     crypto.Pubkey
	engine *Engine
}

// NewProgram returns the marketplace program deployed at id. A zero id falls
// back to ProgramID.
func NewProgram(id crypto.Pubkey) *Program {
	if id.IsZero() {
		id = ProgramID
	}
	return &Program{id: id, engine: NewEngine()}
}

func (p *Program) ID() crypto.Pubkey { return p.id }

func (p *Program) Name() string { return moduleName }

func (p *Program) InstructionName(data []byte) string {
	if len(data) >= DiscriminatorLen && bytes.Equal(data[:DiscriminatorLen], initializeDiscriminator[:]) {
		return instructionInitialize
	}
	return ""
}

// Process decodes and runs a single instruction.
func (p *Program) Process(ctx *runtime.InvokeContext, accounts []runtime.AccountMeta, data []byte) error {
	if len(data) < DiscriminatorLen {
		return ferrors.ErrInstructionFallbackNotFound
	}
	switch {
	case bytes.Equal(data[:DiscriminatorLen], initializeDiscriminator[:]):
		if len(accounts) <= initializeSystemProgramIndex {
			return fmt.Errorf("%w: initialize needs %d, got %d", ferrors.ErrAccountNotEnoughKeys, initializeSystemProgramIndex+1, len(accounts))
		}
		if sys := accounts[initializeSystemProgramIndex].Pubkey; sys != crypto.SystemProgramID {
			return fmt.Errorf("%w: %s is not the system program", ferrors.ErrInvalidProgramID, sys)
		}
		args, err := decodeInitializeArgs(data[DiscriminatorLen:])
		if err != nil {
			return err
		}
		admin := accounts[initializeAdminIndex]
		_, span := otel.Tracer("farmercore/farmer").Start(ctx.Context(), "farmer.initialize", trace.WithAttributes(
			attribute.String("farmer.admin", admin.Pubkey.String()),
			attribute.Int("farmer.allowed_mints", len(args.AllowedPaymentTokens)),
		))
		defer span.End()
		ctx.Log("Instruction: Initialize")
		err = p.engine.InitializeConfig(ctx, InitializeAccounts{
			Config:      accounts[initializeConfigIndex].Pubkey,
			Admin:       admin.Pubkey,
			AdminSigned: admin.IsSigner,
		}, args)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return err
	default:
		return ferrors.ErrInstructionFallbackNotFound
	}
}

// AccountReader loads committed accounts.
type AccountReader interface {
	Account(addr crypto.Pubkey) (*types.Account, bool, error)
}

// LoadConfig reads the config record of programID. It fails with
// ErrNotFound before initialization.
func LoadConfig(reader AccountReader, programID crypto.Pubkey) (*ProgramConfig, error) {
	addr, _, err := ConfigAddress(programID)
	if err != nil {
		return nil, err
	}
	acct, ok, err := reader.Account(addr)
	if err != nil {
		return nil, err
	}
	if !ok || !acct.Allocated() {
		return nil, fmt.Errorf("farmer: config %s: %w", addr, ferrors.ErrNotFound)
	}
	if acct.Owner != programID {
		return nil, fmt.Errorf("%w: config %s owned by %s", ferrors.ErrAccountNotOwned, addr, acct.Owner)
	}
	return UnmarshalProgramConfig(acct.Data)
}
