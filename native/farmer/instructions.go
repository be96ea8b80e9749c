package farmer

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"

	ferrors "farmercore/core/errors"
	"farmercore/core/runtime"
	"farmercore/crypto"
)

const instructionInitialize = "initialize"

var initializeDiscriminator = discriminator("global:" + instructionInitialize)

// InitializeArgs are the caller-supplied fields of the config record. The
// admin is not an argument: it is whoever signs.
type InitializeArgs struct {
	FeeWallet            crypto.Pubkey
	Paused               bool
	AllowedPaymentTokens []crypto.Pubkey
}

// Account positions expected by the initialize instruction.
const (
	initializeConfigIndex = iota
	initializeAdminIndex
	initializeSystemProgramIndex
)

// NewInitializeInstruction builds the instruction creating the config record
// for programID, signed and paid for by admin.
func NewInitializeInstruction(programID, admin crypto.Pubkey, args InitializeArgs) (runtime.Instruction, error) {
	configAddr, _, err := ConfigAddress(programID)
	if err != nil {
		return runtime.Instruction{}, err
	}
	data, err := encodeInitializeArgs(args)
	if err != nil {
		return runtime.Instruction{}, err
	}
	return runtime.Instruction{
		ProgramID: programID,
		Accounts: []runtime.AccountMeta{
			initializeConfigIndex:        {Pubkey: configAddr, IsWritable: true},
			initializeAdminIndex:         {Pubkey: admin, IsSigner: true, IsWritable: true},
			initializeSystemProgramIndex: {Pubkey: crypto.SystemProgramID},
		},
		Data: data,
	}, nil
}

func encodeInitializeArgs(args InitializeArgs) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(initializeDiscriminator[:])
	if args.AllowedPaymentTokens == nil {
		args.AllowedPaymentTokens = []crypto.Pubkey{}
	}
	if err := bin.NewBorshEncoder(&buf).Encode(&args); err != nil {
		return nil, fmt.Errorf("farmer: encode initialize: %w", err)
	}
	return buf.Bytes(), nil
}

// initializePausedOffset locates the paused flag in the encoded arguments.
const initializePausedOffset = crypto.PubkeyLength

func decodeInitializeArgs(data []byte) (InitializeArgs, error) {
	if len(data) > initializePausedOffset && data[initializePausedOffset] > 1 {
		return InitializeArgs{}, fmt.Errorf("%w: paused byte %#x", ferrors.ErrInstructionDidNotDeserialize, data[initializePausedOffset])
	}
	var args InitializeArgs
	if err := bin.NewBorshDecoder(data).Decode(&args); err != nil {
		return InitializeArgs{}, fmt.Errorf("%w: %v", ferrors.ErrInstructionDidNotDeserialize, err)
	}
	return args, nil
}
