package main

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"farmercore/config"
	ferrors "farmercore/core/errors"
	"farmercore/core/state"
	"farmercore/crypto"
	"farmercore/native/farmer"
	"farmercore/observability/logging"
	"farmercore/storage"
)

func testLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(logging.NewHandler(buf, slog.LevelDebug))
}

func TestBootstrapCreatesConfigOnce(t *testing.T) {
	var logs bytes.Buffer
	logger := testLogger(&logs)

	admin, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	cfg := &config.Config{
		DataDir:     t.TempDir(),
		HTTPAddress: ":0",
		LogLevel:    "debug",
		Genesis:     []config.GenesisAlloc{{Address: admin.PubKey().String(), Lamports: 1_000_000_000}},
		Bootstrap: &config.Bootstrap{
			AdminKeystore:        "unused",
			FeeWallet:            farmer.ProgramID.String(),
			AllowedPaymentTokens: []string{crypto.SystemProgramID.String()},
		},
	}

	db := storage.NewMemDB()
	n, err := openNode(db, cfg, logger)
	require.NoError(t, err)
	defer n.Close()

	require.NoError(t, applyGenesis(n.rt, cfg, logger))
	slot := n.rt.Slot()
	require.NoError(t, applyGenesis(n.rt, cfg, logger))
	require.Equal(t, slot, n.rt.Slot(), "genesis only applies to an empty store")

	receipt, err := bootstrapConfig(context.Background(), n.rt, n.programID, cfg.Bootstrap, admin)
	require.NoError(t, err)
	require.NotNil(t, receipt)

	again, err := bootstrapConfig(context.Background(), n.rt, n.programID, cfg.Bootstrap, admin)
	require.NoError(t, err)
	require.Nil(t, again)

	err = n.rt.View(func(st *state.Manager) error {
		stored, err := farmer.LoadConfig(st, n.programID)
		if err != nil {
			return err
		}
		require.Equal(t, admin.PubKey(), stored.Admin)
		require.Equal(t, farmer.ProgramID, stored.FeeWallet)
		require.Len(t, stored.AllowedPaymentTokens, 1)
		return nil
	})
	require.NoError(t, err)

	if !strings.Contains(logs.String(), farmer.EventTypeConfigInitialized) {
		t.Fatalf("config event was not logged: %s", logs.String())
	}
}

func TestBootstrapSurfacesProgramErrors(t *testing.T) {
	logger := testLogger(&bytes.Buffer{})
	admin, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)

	tokens := make([]string, farmer.MaxAllowedMints+1)
	for i := range tokens {
		tokens[i] = crypto.SystemProgramID.String()
	}
	cfg := &config.Config{
		Genesis:   []config.GenesisAlloc{{Address: admin.PubKey().String(), Lamports: 1_000_000_000}},
		Bootstrap: &config.Bootstrap{FeeWallet: farmer.ProgramID.String(), AllowedPaymentTokens: tokens},
	}
	n, err := openNode(storage.NewMemDB(), cfg, logger)
	require.NoError(t, err)
	defer n.Close()
	require.NoError(t, applyGenesis(n.rt, cfg, logger))

	_, err = bootstrapConfig(context.Background(), n.rt, n.programID, cfg.Bootstrap, admin)
	require.ErrorIs(t, err, ferrors.ErrCapacityExceeded)
}

func TestOpenNodeResumesFromHeadRoot(t *testing.T) {
	logger := testLogger(&bytes.Buffer{})
	dir := t.TempDir()
	addr := crypto.Pubkey{0x09}
	cfg := &config.Config{Genesis: []config.GenesisAlloc{{Address: addr.String(), Lamports: 42}}}

	db, err := storage.NewLevelDB(dir)
	require.NoError(t, err)
	n, err := openNode(db, cfg, logger)
	require.NoError(t, err)
	require.NoError(t, applyGenesis(n.rt, cfg, logger))
	n.Close()

	db, err = storage.NewLevelDB(dir)
	require.NoError(t, err)
	reopened, err := openNode(db, cfg, logger)
	require.NoError(t, err)
	defer reopened.Close()
	require.Equal(t, uint64(1), reopened.rt.Slot())

	err = reopened.rt.View(func(st *state.Manager) error {
		bal, err := st.Balance(addr)
		require.Equal(t, uint64(42), bal)
		return err
	})
	require.NoError(t, err)
}

func TestLoadAdminKeyGeneratesThenReloads(t *testing.T) {
	var logs bytes.Buffer
	logger := testLogger(&logs)
	path := filepath.Join(t.TempDir(), "keys", "admin.keystore")
	pass := func() (string, error) { return "correct horse", nil }

	generated, err := loadAdminKey(path, pass, logger)
	require.NoError(t, err)
	reloaded, err := loadAdminKey(path, pass, logger)
	require.NoError(t, err)
	require.Equal(t, generated.PubKey(), reloaded.PubKey())

	if strings.Contains(logs.String(), "correct horse") {
		t.Fatalf("passphrase leaked into logs: %s", logs.String())
	}
	require.Contains(t, logs.String(), logging.RedactedValue)
}
