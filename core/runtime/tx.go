package runtime

import (
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	ferrors "farmercore/core/errors"
	"farmercore/crypto"
)

// AccountMeta names an account an instruction touches and how.
type AccountMeta struct {
	Pubkey     crypto.Pubkey
	IsSigner   bool
	IsWritable bool
}

// Instruction invokes one program with an ordered account list and opaque
// instruction data.
type Instruction struct {
	ProgramID crypto.Pubkey
	Accounts  []AccountMeta
	Data      []byte
}

// Message is the signed portion of a transaction.
type Message struct {
	Nonce        uint64
	Instructions []Instruction
}

// Bytes returns the canonical RLP encoding that signers commit to.
func (m *Message) Bytes() ([]byte, error) {
	return rlp.EncodeToBytes(m)
}

// Signature binds a signer to the message bytes.
type Signature struct {
	Signer crypto.Pubkey
	Sig    []byte
}

// Transaction is an atomic batch of instructions. Either every instruction
// succeeds and the state commits, or nothing is written.
type Transaction struct {
	Message    Message
	Signatures []Signature
}

// NewTransaction assembles an unsigned transaction.
func NewTransaction(nonce uint64, instructions ...Instruction) *Transaction {
	return &Transaction{Message: Message{Nonce: nonce, Instructions: instructions}}
}

// Sign appends a signature for every supplied key.
func (tx *Transaction) Sign(keys ...*crypto.PrivateKey) error {
	msg, err := tx.Message.Bytes()
	if err != nil {
		return fmt.Errorf("runtime: encode message: %w", err)
	}
	for _, key := range keys {
		if key == nil {
			return fmt.Errorf("runtime: nil signing key")
		}
		tx.Signatures = append(tx.Signatures, Signature{Signer: key.PubKey(), Sig: key.Sign(msg)})
	}
	return nil
}

// ID is the keccak256 digest of the message.
func (tx *Transaction) ID() ([32]byte, error) {
	var id [32]byte
	msg, err := tx.Message.Bytes()
	if err != nil {
		return id, err
	}
	copy(id[:], ethcrypto.Keccak256(msg))
	return id, nil
}

// verify checks every attached signature and that every account flagged as
// a signer in any instruction has one. It returns the verified signer set.
func (tx *Transaction) verify() (map[crypto.Pubkey]bool, error) {
	msg, err := tx.Message.Bytes()
	if err != nil {
		return nil, fmt.Errorf("runtime: encode message: %w", err)
	}
	signers := make(map[crypto.Pubkey]bool, len(tx.Signatures))
	for _, sig := range tx.Signatures {
		if !crypto.Verify(sig.Signer, msg, sig.Sig) {
			return nil, fmt.Errorf("%w: %s", ferrors.ErrInvalidSignature, sig.Signer)
		}
		signers[sig.Signer] = true
	}
	for i, ix := range tx.Message.Instructions {
		for _, meta := range ix.Accounts {
			if meta.IsSigner && !signers[meta.Pubkey] {
				return nil, fmt.Errorf("instruction %d: %w: %s", i, ferrors.ErrMissingSigner, meta.Pubkey)
			}
		}
	}
	return signers, nil
}
