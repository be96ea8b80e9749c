package runtime

import (
	"context"
	"fmt"
	"log/slog"

	ferrors "farmercore/core/errors"
	"farmercore/core/events"
	"farmercore/core/state"
	"farmercore/core/types"
	"farmercore/crypto"
)

// InvokeContext is the capability surface a program sees while processing a
// single instruction. Writes go to uncommitted state; the runtime decides
// whether they survive.
type InvokeContext struct {
	ctx      context.Context
	program  Program
	state    *state.Manager
	rent     Rent
	signers  map[crypto.Pubkey]bool
	writable map[crypto.Pubkey]bool

	logger    *slog.Logger
	logs      *[]string
	recorder  *events.Recorder
	allocated *[]allocation
}

func (c *InvokeContext) Context() context.Context {
	return c.ctx
}

// ProgramID returns the ID of the executing program.
func (c *InvokeContext) ProgramID() crypto.Pubkey {
	return c.program.ID()
}

// IsSigner reports whether pk signed the enclosing transaction.
func (c *InvokeContext) IsSigner(pk crypto.Pubkey) bool {
	return c.signers[pk]
}

// Account returns a copy of the account at addr.
func (c *InvokeContext) Account(addr crypto.Pubkey) (*types.Account, bool, error) {
	acct, ok, err := c.state.Account(addr)
	if err != nil || !ok {
		return nil, ok, err
	}
	return acct.Copy(), true, nil
}

// CreateAccount allocates space bytes at addr owned by the executing program
// and moves the rent-exempt minimum from payer. The allocation is exclusive:
// an address that already carries data fails with ErrAlreadyInitialized.
func (c *InvokeContext) CreateAccount(payer, addr crypto.Pubkey, space uint64) error {
	if !c.IsSigner(payer) {
		return fmt.Errorf("%w: payer %s", ferrors.ErrMissingSigner, payer)
	}
	if !c.writable[payer] || !c.writable[addr] {
		return fmt.Errorf("%w: create account %s", ferrors.ErrAccountNotWritable, addr)
	}
	exists, err := c.state.AccountExists(addr)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ferrors.ErrAlreadyInitialized, addr)
	}

	rent := c.rent.MinimumBalance(space)
	if err := c.state.Debit(payer, rent); err != nil {
		return err
	}
	if err := c.state.Credit(addr, rent); err != nil {
		return err
	}
	if _, err := c.state.Allocate(addr, c.program.ID(), space); err != nil {
		return err
	}
	*c.allocated = append(*c.allocated, allocation{program: c.program.Name(), bytes: space, rent: rent})
	c.Log("Allocate %s: %d bytes, %d lamports paid by %s", addr, space, rent, payer)
	return nil
}

// WriteAccountData replaces the data of an account the program owns. data may
// be shorter than the allocation; the remainder is zeroed. It can never be
// longer.
func (c *InvokeContext) WriteAccountData(addr crypto.Pubkey, data []byte) error {
	if !c.writable[addr] {
		return fmt.Errorf("%w: %s", ferrors.ErrAccountNotWritable, addr)
	}
	acct, ok, err := c.state.Account(addr)
	if err != nil {
		return err
	}
	if !ok || !acct.Allocated() {
		return fmt.Errorf("%w: %s", ferrors.ErrAccountNotFound, addr)
	}
	if acct.Owner != c.program.ID() {
		return fmt.Errorf("%w: %s owned by %s", ferrors.ErrAccountNotOwned, addr, acct.Owner)
	}
	if uint64(len(data)) > acct.Space {
		return fmt.Errorf("%w: %d > %d", ferrors.ErrAccountDataTooBig, len(data), acct.Space)
	}
	buf := make([]byte, acct.Space)
	copy(buf, data)
	acct.Data = buf
	return c.state.PutAccount(addr, acct)
}

// Log appends a program log line to the receipt and mirrors it to the node
// logger at debug level.
func (c *InvokeContext) Log(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	*c.logs = append(*c.logs, line)
	c.logger.Debug(line, slog.String("program", c.program.Name()))
}

// Emit buffers evt until the transaction commits.
func (c *InvokeContext) Emit(evt events.Event) {
	c.recorder.Emit(evt)
}
