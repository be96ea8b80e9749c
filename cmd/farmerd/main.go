package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"farmercore/cmd/internal/passphrase"
	"farmercore/config"
	"farmercore/observability/logging"
	farmerotel "farmercore/observability/otel"
	"farmercore/rpc"
	"farmercore/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger, logCloser := logging.Setup(logging.Options{
		Service:    "farmerd",
		Env:        cfg.Environment,
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  100,
		MaxBackups: 5,
	})
	defer logCloser.Close()

	if err := run(cfg, logger); err != nil {
		logger.Error("farmerd stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := farmerotel.Init(ctx, farmerotel.Config{
		ServiceName: cfg.Telemetry.ServiceName,
		Environment: cfg.Environment,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Headers:     farmerotel.ParseHeaders(cfg.Telemetry.Headers),
		Traces:      cfg.Telemetry.Traces,
		Metrics:     cfg.Telemetry.Metrics,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logger.Warn("telemetry shutdown", slog.Any("error", err))
		}
	}()

	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "state"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	logger.Info("state database opened", slog.String("path", db.Path()))
	n, err := openNode(db, cfg, logger)
	if err != nil {
		db.Close()
		return err
	}
	defer n.Close()

	if err := applyGenesis(n.rt, cfg, logger); err != nil {
		return err
	}

	if b := cfg.Bootstrap; b != nil {
		source := passphrase.NewSource(b.PassphraseEnv, "admin keystore")
		admin, err := loadAdminKey(b.AdminKeystore, source.Get, logger)
		if err != nil {
			return fmt.Errorf("load admin key: %w", err)
		}
		receipt, err := bootstrapConfig(ctx, n.rt, n.programID, b, admin)
		if err != nil {
			return fmt.Errorf("bootstrap config: %w", err)
		}
		if receipt != nil {
			logger.Info("config record initialized",
				slog.String("tx", receipt.TxID),
				slog.Uint64("slot", receipt.Slot),
				slog.String("admin", admin.PubKey().String()),
			)
		} else {
			logger.Info("config record already present")
		}
	}

	ln, err := net.Listen("tcp", cfg.HTTPAddress)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.HTTPAddress, err)
	}
	logger.Info("farmerd started",
		slog.String("program", n.programID.String()),
		slog.Uint64("slot", n.rt.Slot()),
	)
	return rpc.NewServer(n.rt, n.programID, logger).Serve(ctx, ln)
}
