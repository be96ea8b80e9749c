package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"farmercore/config"
	ferrors "farmercore/core/errors"
	"farmercore/core/events"
	"farmercore/core/runtime"
	"farmercore/core/state"
	"farmercore/crypto"
	"farmercore/native/farmer"
	"farmercore/observability/logging"
	"farmercore/storage"
	"farmercore/storage/trie"
)

type node struct {
	db        storage.Database
	rt        *runtime.Runtime
	programID crypto.Pubkey
}

func (n *node) Close() {
	if n.db != nil {
		n.db.Close()
	}
}

// openNode restores the runtime from the last committed root in db and
// registers the marketplace program.
func openNode(db storage.Database, cfg *config.Config, logger *slog.Logger) (*node, error) {
	programID, err := cfg.ProgramPubkey(farmer.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("program id: %w", err)
	}
	head, err := trie.HeadRoot(db)
	if err != nil {
		return nil, fmt.Errorf("read head root: %w", err)
	}
	tr, err := trie.NewTrie(db, head)
	if err != nil {
		return nil, fmt.Errorf("open state trie: %w", err)
	}

	opts := []runtime.Option{
		runtime.WithLogger(logger),
		runtime.WithEmitter(logEmitter{logger: logger}),
	}
	if cfg.Rent.LamportsPerByteYear != 0 {
		opts = append(opts, runtime.WithRent(runtime.Rent{
			LamportsPerByteYear: cfg.Rent.LamportsPerByteYear,
			ExemptionThreshold:  cfg.Rent.ExemptionThreshold,
		}))
	}
	rt, err := runtime.New(state.NewManager(tr), opts...)
	if err != nil {
		return nil, err
	}
	if err := rt.Register(farmer.NewProgram(programID)); err != nil {
		return nil, err
	}
	return &node{db: db, rt: rt, programID: programID}, nil
}

// applyGenesis credits the configured balances. It only runs against a store
// that has never committed.
func applyGenesis(rt *runtime.Runtime, cfg *config.Config, logger *slog.Logger) error {
	if rt.Slot() != 0 {
		return nil
	}
	allocs, err := cfg.GenesisAccounts()
	if err != nil {
		return err
	}
	for addr, lamports := range allocs {
		if err := rt.Fund(addr, lamports); err != nil {
			return fmt.Errorf("genesis %s: %w", addr, err)
		}
		logger.Info("genesis allocation", slog.String("address", addr.String()), slog.Uint64("lamports", lamports))
	}
	return nil
}

// loadAdminKey decrypts the admin keystore, generating a fresh key on first
// start.
func loadAdminKey(path string, passphrase func() (string, error), logger *slog.Logger) (*crypto.PrivateKey, error) {
	pass, err := passphrase()
	if err != nil {
		return nil, err
	}
	logger.Debug("opening admin keystore", slog.String("path", path), logging.MaskField("passphrase", pass))
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		key, err := crypto.GeneratePrivateKey()
		if err != nil {
			return nil, err
		}
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, err
			}
		}
		if err := crypto.SaveToKeystore(path, key, pass); err != nil {
			return nil, fmt.Errorf("write admin keystore: %w", err)
		}
		logger.Info("generated admin keystore", slog.String("path", path), slog.String("admin", key.PubKey().String()))
		return key, nil
	} else if statErr != nil {
		return nil, statErr
	}
	return crypto.LoadFromKeystore(path, pass)
}

// bootstrapConfig creates the config record from b unless it already exists.
// The returned receipt is nil when there was nothing to do.
func bootstrapConfig(ctx context.Context, rt *runtime.Runtime, programID crypto.Pubkey, b *config.Bootstrap, admin *crypto.PrivateKey) (*runtime.Receipt, error) {
	err := rt.View(func(st *state.Manager) error {
		_, loadErr := farmer.LoadConfig(st, programID)
		return loadErr
	})
	switch {
	case err == nil:
		return nil, nil
	case !errors.Is(err, ferrors.ErrNotFound):
		return nil, err
	}

	feeWallet, err := b.FeeWalletPubkey()
	if err != nil {
		return nil, err
	}
	mints, err := b.AllowedMints()
	if err != nil {
		return nil, err
	}
	ix, err := farmer.NewInitializeInstruction(programID, admin.PubKey(), farmer.InitializeArgs{
		FeeWallet:            feeWallet,
		Paused:               b.Paused,
		AllowedPaymentTokens: mints,
	})
	if err != nil {
		return nil, err
	}
	tx := runtime.NewTransaction(rt.Slot(), ix)
	if err := tx.Sign(admin); err != nil {
		return nil, err
	}
	return rt.Execute(ctx, tx)
}

// logEmitter writes committed events to the node log.
type logEmitter struct {
	logger *slog.Logger
}

func (e logEmitter) Emit(evt events.Event) {
	payload := evt.Event()
	if payload == nil {
		return
	}
	attrs := make([]any, 0, len(payload.Attributes)+1)
	attrs = append(attrs, slog.String("type", payload.Type))
	for k, v := range payload.Attributes {
		attrs = append(attrs, slog.String(k, v))
	}
	e.logger.Info("event", attrs...)
}
