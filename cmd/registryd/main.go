package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/sharehub/sharehub/internal/adapter"
	"github.com/sharehub/sharehub/internal/api/server"
	"github.com/sharehub/sharehub/internal/bridge"
	"github.com/sharehub/sharehub/internal/config"
	"github.com/sharehub/sharehub/internal/hub"
	"github.com/sharehub/sharehub/internal/ledger/memledger"
	"github.com/sharehub/sharehub/internal/logger"
	"github.com/sharehub/sharehub/internal/messaging"
	"github.com/sharehub/sharehub/internal/providers/jetstream"
	"github.com/sharehub/sharehub/internal/store"
)

var (
	configPath = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "", "Path to directory holding .env files")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadRegistrydConfig(*configPath, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	err = logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
		Tags:      map[string]string{"service": "registryd"},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.Info("Starting Registry Daemon")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := store.ConfigureConnectionPool(db,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
		cfg.Database.ConnMaxLifetime,
		cfg.Database.ConnMaxIdleTime,
	); err != nil {
		logger.Fatal("Failed to configure connection pool", zap.Error(err))
	}
	if err := store.Migrate(db); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Initialize adapters
	jsonAdapter := adapter.NewJSON()
	natsJS := adapter.NewNatsJetStream()
	clock := adapter.NewClock()

	// Event journal
	journal := store.NewJournalPublisher(store.NewPGStore(db), jsonAdapter, cfg.Journal.RetryMaxElapsed)

	// Event stream publisher
	streamPublisher, err := jetstream.NewPublisher(
		jetstream.Config{
			URL:            cfg.NATS.URL,
			StreamName:     cfg.NATS.EventStream,
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectionName: cfg.NATS.ConnectionName,
		},
		natsJS,
		jsonAdapter,
	)
	if err != nil {
		logger.Fatal("Failed to create event publisher", zap.Error(err))
	}
	defer streamPublisher.Close()

	publisher := messaging.Fanout{journal, streamPublisher}

	// Hub collaborators. The in-memory ledger and settlement rail stand in
	// until external ledger clients are wired.
	hubAccount := common.HexToAddress(cfg.Hub.Account)
	shares := memledger.NewShareLedger(hubAccount)
	bank := memledger.NewBank()

	// Create hub
	h, err := hub.New(
		hub.Config{
			Owner:        common.HexToAddress(cfg.Hub.Owner),
			Account:      hubAccount,
			ShareToken:   common.HexToAddress(cfg.Hub.ShareToken),
			FeeRecipient: common.HexToAddress(cfg.Hub.FeeRecipient),
			FeeBps:       cfg.Hub.FeeBps,
		},
		shares,
		bank,
		publisher,
		clock,
	)
	if err != nil {
		logger.Fatal("Failed to create hub", zap.Error(err))
	}
	logger.Info("Hub created",
		zap.String("owner", cfg.Hub.Owner),
		zap.String("share_token", cfg.Hub.ShareToken),
		zap.Uint64("fee_bps", h.PlatformFeeBps()))

	// Create bridge
	ledgerBridge, err := bridge.NewBridge(
		bridge.Config{
			URL:            cfg.NATS.URL,
			StreamName:     cfg.NATS.StreamName,
			ConsumerName:   cfg.NATS.ConsumerName,
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectionName: cfg.NATS.ConnectionName,
			AckWaitTimeout: cfg.NATS.AckWait,
			MaxDeliver:     cfg.NATS.MaxDeliver,
			ShareToken:     common.HexToAddress(cfg.Hub.ShareToken),
		},
		natsJS,
		h,
		jsonAdapter,
	)
	if err != nil {
		logger.Fatal("Failed to create ledger bridge", zap.Error(err))
	}
	defer ledgerBridge.Close()
	logger.Info("Ledger bridge created", zap.String("stream", cfg.NATS.StreamName), zap.String("consumer", cfg.NATS.ConsumerName))

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Create read API server
	apiServer := server.New(server.Config{
		Debug:        cfg.Debug,
		Host:         cfg.API.Host,
		Port:         cfg.API.Port,
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
		IdleTimeout:  cfg.API.IdleTimeout,
	}, h)

	// Channel for component errors
	errCh := make(chan error, 2)

	// Start the bridge
	go func() {
		if err := ledgerBridge.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()

	// Start the API server
	go func() {
		if err := apiServer.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-sigCh:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.Error(err)
		cancel()
	}

	// Give components time for graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error(err)
	}
	time.Sleep(time.Second)

	logger.Info("Registry Daemon stopped")
}
