// Package runtime is the host that executes program instructions against the
// account state. It verifies signatures, charges rent for new allocations and
// guarantees that a transaction either commits entirely or leaves no trace.
package runtime

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"farmercore/core/events"
	"farmercore/core/state"
	"farmercore/core/types"
	"farmercore/crypto"
	"farmercore/observability"
)

// ErrUnknownProgram is returned when an instruction targets an unregistered
// program ID.
var ErrUnknownProgram = errors.New("runtime: unknown program")

var slotKey = []byte("runtime/slot")

// Program is an on-chain program the runtime can dispatch to.
type Program interface {
	ID() crypto.Pubkey
	Name() string
	// InstructionName labels data for metrics without executing it.
	InstructionName(data []byte) string
	Process(ctx *InvokeContext, accounts []AccountMeta, data []byte) error
}

// Receipt describes a committed transaction.
type Receipt struct {
	TxID      string         `json:"txId"`
	Slot      uint64         `json:"slot"`
	StateRoot common.Hash    `json:"stateRoot"`
	Logs      []string       `json:"logs"`
	Events    []*types.Event `json:"events"`
}

type allocation struct {
	program string
	bytes   uint64
	rent    uint64
}

// Runtime serializes transactions over a single state manager. Two callers
// racing to allocate the same address observe exactly one success.
type Runtime struct {
	mu       sync.Mutex
	state    *state.Manager
	programs map[crypto.Pubkey]Program
	rent     Rent
	slot     uint64

	logger  *slog.Logger
	emitter events.Emitter
	tracer  trace.Tracer
}

// Option customises a Runtime.
type Option func(*Runtime)

// WithRent overrides the default rent schedule.
func WithRent(rent Rent) Option {
	return func(r *Runtime) { r.rent = rent }
}

// WithLogger routes program logs and execution diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithEmitter forwards committed events downstream.
func WithEmitter(emitter events.Emitter) Option {
	return func(r *Runtime) {
		if emitter != nil {
			r.emitter = emitter
		}
	}
}

// New builds a runtime over st, resuming the slot counter persisted in state.
func New(st *state.Manager, opts ...Option) (*Runtime, error) {
	if st == nil {
		return nil, errors.New("runtime: state manager required")
	}
	r := &Runtime{
		state:    st,
		programs: make(map[crypto.Pubkey]Program),
		rent:     DefaultRent(),
		logger:   slog.Default(),
		emitter:  events.NoopEmitter{},
		tracer:   otel.Tracer("farmercore/runtime"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if _, err := st.KVGet(slotKey, &r.slot); err != nil {
		return nil, fmt.Errorf("runtime: load slot: %w", err)
	}
	return r, nil
}

// Register makes p reachable by instructions addressed to p.ID().
func (r *Runtime) Register(p Program) error {
	if p == nil {
		return errors.New("runtime: nil program")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.programs[p.ID()]; exists {
		return fmt.Errorf("runtime: program %s already registered", p.ID())
	}
	r.programs[p.ID()] = p
	return nil
}

// Rent returns the active rent schedule.
func (r *Runtime) Rent() Rent {
	return r.rent
}

// Slot returns the number of committed transactions.
func (r *Runtime) Slot() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.slot
}

// View runs fn against committed state while holding the execution lock.
func (r *Runtime) View(fn func(*state.Manager) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(r.state)
}

// Fund credits lamports to addr outside of any program, committing
// immediately. It is used for genesis allocations.
func (r *Runtime) Fund(addr crypto.Pubkey, lamports uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.state.Credit(addr, lamports); err != nil {
		_ = r.state.Trie().Rollback()
		return err
	}
	if _, err := r.commitLocked(); err != nil {
		_ = r.state.Trie().Rollback()
		return err
	}
	return nil
}

// Execute verifies and runs tx. Any failure rolls the state back to the last
// committed root and the returned error wraps the first cause.
func (r *Runtime) Execute(ctx context.Context, tx *Transaction) (*Receipt, error) {
	if tx == nil {
		return nil, errors.New("runtime: nil transaction")
	}
	start := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx, span := r.tracer.Start(ctx, "runtime.Execute", trace.WithAttributes(
		attribute.Int("tx.instructions", len(tx.Message.Instructions)),
	))
	defer span.End()

	receipt, allocations, err := r.executeLocked(ctx, tx)
	metrics := observability.Runtime()
	metrics.ObserveTransaction(err, time.Since(start))
	if err != nil {
		if rbErr := r.state.Trie().Rollback(); rbErr != nil {
			r.logger.Error("state rollback failed", slog.Any("error", rbErr))
			err = errors.Join(err, rbErr)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Debug("transaction rejected", slog.Any("error", err))
		return nil, err
	}
	for _, alloc := range allocations {
		metrics.RecordAllocation(alloc.program, alloc.bytes, alloc.rent)
	}
	span.SetAttributes(attribute.Int64("tx.slot", int64(receipt.Slot)))
	r.logger.Debug("transaction committed",
		slog.String("tx", receipt.TxID),
		slog.Uint64("slot", receipt.Slot),
		slog.String("root", receipt.StateRoot.Hex()),
	)
	return receipt, nil
}

func (r *Runtime) executeLocked(ctx context.Context, tx *Transaction) (*Receipt, []allocation, error) {
	if len(tx.Message.Instructions) == 0 {
		return nil, nil, errors.New("runtime: transaction has no instructions")
	}
	id, err := tx.ID()
	if err != nil {
		return nil, nil, err
	}
	signers, err := tx.verify()
	if err != nil {
		return nil, nil, err
	}

	var (
		recorder    events.Recorder
		logs        []string
		allocations []allocation
	)
	for i, ix := range tx.Message.Instructions {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		program, ok := r.programs[ix.ProgramID]
		if !ok {
			return nil, nil, fmt.Errorf("instruction %d: %w: %s", i, ErrUnknownProgram, ix.ProgramID)
		}
		invoke := &InvokeContext{
			ctx:       ctx,
			program:   program,
			state:     r.state,
			rent:      r.rent,
			signers:   signers,
			writable:  writableSet(ix.Accounts),
			logger:    r.logger,
			logs:      &logs,
			recorder:  &recorder,
			allocated: &allocations,
		}
		invoke.Log("Program %s invoke", program.ID())
		err := program.Process(invoke, ix.Accounts, ix.Data)
		observability.Runtime().ObserveInstruction(program.Name(), program.InstructionName(ix.Data), err)
		if err != nil {
			return nil, nil, fmt.Errorf("instruction %d: %w", i, err)
		}
		invoke.Log("Program %s success", program.ID())
	}

	root, err := r.commitLocked()
	if err != nil {
		return nil, nil, err
	}
	committed := recorder.Drain()
	for _, evt := range committed {
		r.emitter.Emit(committedEvent{evt: evt})
	}
	return &Receipt{
		TxID:      hex.EncodeToString(id[:]),
		Slot:      r.slot,
		StateRoot: root,
		Logs:      logs,
		Events:    committed,
	}, allocations, nil
}

func (r *Runtime) commitLocked() (common.Hash, error) {
	next := r.slot + 1
	if err := r.state.KVPut(slotKey, next); err != nil {
		return common.Hash{}, err
	}
	root, err := r.state.Trie().Commit(next)
	if err != nil {
		return common.Hash{}, fmt.Errorf("runtime: commit state: %w", err)
	}
	r.slot = next
	return root, nil
}

func writableSet(metas []AccountMeta) map[crypto.Pubkey]bool {
	out := make(map[crypto.Pubkey]bool, len(metas))
	for _, meta := range metas {
		if meta.IsWritable {
			out[meta.Pubkey] = true
		}
	}
	return out
}

type committedEvent struct {
	evt *types.Event
}

func (c committedEvent) EventType() string { return c.evt.Type }

func (c committedEvent) Event() *types.Event { return c.evt }
