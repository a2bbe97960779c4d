package main

import (
	"context"
	"flag"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/feral-file/ff-ticket-market/internal/adapter"
	"github.com/feral-file/ff-ticket-market/internal/api/middleware"
	"github.com/feral-file/ff-ticket-market/internal/api/server"
	"github.com/feral-file/ff-ticket-market/internal/asset"
	"github.com/feral-file/ff-ticket-market/internal/config"
	"github.com/feral-file/ff-ticket-market/internal/domain"
	"github.com/feral-file/ff-ticket-market/internal/events"
	"github.com/feral-file/ff-ticket-market/internal/logger"
	"github.com/feral-file/ff-ticket-market/internal/market"
	"github.com/feral-file/ff-ticket-market/internal/messaging"
	"github.com/feral-file/ff-ticket-market/internal/payment"
	"github.com/feral-file/ff-ticket-market/internal/providers/jetstream"
	"github.com/feral-file/ff-ticket-market/internal/store"
	"github.com/feral-file/ff-ticket-market/internal/sweeper"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

// storeSettings reads operator settings straight from the ledger for post-commit hooks
type storeSettings struct {
	store.Store
}

func (s storeSettings) Settings(ctx context.Context) (*domain.Settings, error) {
	return s.GetSettings(ctx)
}

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadMarketConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		Environment:     cfg.Environment,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "marketd",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Feral File ticket market")

	operator, err := cfg.OperatorAddress()
	if err != nil {
		logger.Fatal("Invalid operator address", zap.Error(err))
	}

	// Ledger store
	var dataStore store.Store
	if cfg.Database.Host != "" {
		db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err), zap.String("host", cfg.Database.Host))
		}
		if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
			logger.Fatal("Failed to configure connection pool", zap.Error(err))
		}
		logger.InfoCtx(ctx, "Connected to database",
			zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
			zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
		)
		dataStore = store.NewPGStore(db)
	} else {
		logger.WarnCtx(ctx, "Database not configured, using in-memory ledger")
		dataStore = store.NewMemoryStore()
	}

	// Custodial balances live in the ledger store and commit with each operation
	payer := payment.NewLedgerPayer(dataStore)
	var participants []market.Savepointer

	// Asset gateway
	var gateway asset.Gateway
	var marketAddress domain.Address
	switch cfg.Market.AssetBackend {
	case config.AssetBackendEthereum:
		key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.Ethereum.PrivateKey, "0x"))
		if err != nil {
			logger.Fatal("Failed to parse market private key", zap.Error(err))
		}
		client, err := adapter.NewEthClientDialer().Dial(ctx, cfg.Ethereum.RPCURL)
		if err != nil {
			logger.Fatal("Failed to connect to Ethereum RPC", zap.Error(err))
		}
		defer client.Close()

		gw, err := asset.NewERC721Gateway(client, key, asset.ERC721Config{
			ChainID:        big.NewInt(cfg.Ethereum.ChainID),
			ReceiptTimeout: cfg.Ethereum.ReceiptTimeout,
			PollInterval:   cfg.Ethereum.PollInterval,
		})
		if err != nil {
			logger.Fatal("Failed to create ERC-721 gateway", zap.Error(err))
		}
		gateway = gw
		marketAddress = gw.Market()
		logger.InfoCtx(ctx, "Using ERC-721 gateway",
			zap.Int64("chain_id", cfg.Ethereum.ChainID),
			zap.String("market", marketAddress.String()),
		)
	default:
		marketAddress, err = domain.ParseAddress(cfg.Market.Address)
		if err != nil {
			logger.Fatal("Invalid market address", zap.Error(err))
		}
		registry := asset.NewRegistry(marketAddress)
		gateway = registry
		participants = append(participants, registry)
		logger.WarnCtx(ctx, "Using in-memory asset registry")
	}

	// Event publisher
	var publisher messaging.Publisher = messaging.NopPublisher{}
	if cfg.NATS.URL != "" {
		publisher, err = jetstream.NewPublisher(ctx, jetstream.Config{
			URL:            cfg.NATS.URL,
			StreamName:     cfg.NATS.StreamName,
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectionName: cfg.NATS.ConnectionName,
			MaxAge:         cfg.NATS.MaxAge,
		}, adapter.NewNatsJetStream(), adapter.NewJSON())
		if err != nil {
			logger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
	} else {
		logger.WarnCtx(ctx, "NATS not configured, events will not be published")
	}
	defer publisher.Close()

	dispatcher := events.NewDispatcher(publisher, events.Config{
		Workers:        cfg.Worker.WorkerPoolSize,
		QueueSize:      cfg.Worker.WorkerQueueSize,
		PublishRetries: cfg.Worker.PublishRetries,
		RetryInterval:  cfg.Worker.RetryInterval,
	}, events.NewPlatformNotifier(storeSettings{dataStore}))
	defer dispatcher.Close()

	var royaltyRecipient domain.Address
	if cfg.Market.OfferRoyaltyRecipient != "" {
		royaltyRecipient, _ = domain.ParseAddress(cfg.Market.OfferRoyaltyRecipient)
	}

	clock := adapter.NewClock()
	m, err := market.New(dataStore, gateway, payer, clock, dispatcher, market.Config{
		Operator: operator,
		Market:   marketAddress,
		OfferRoyalty: market.FixedRoyalty{
			Bp:        cfg.Market.OfferRoyaltyBp,
			Recipient: royaltyRecipient,
		},
	}, participants...)
	if err != nil {
		logger.Fatal("Failed to create market", zap.Error(err))
	}

	var settlementSweeper sweeper.Sweeper
	if cfg.Sweeper.Enabled {
		settlementSweeper = sweeper.NewAuctionSettlementSweeper(sweeper.AuctionSettlementConfig{
			Interval:  cfg.Sweeper.Interval,
			BatchSize: cfg.Sweeper.BatchSize,
			Operator:  operator,
		}, dataStore, m, clock)

		go func() {
			if err := settlementSweeper.Start(ctx); err != nil {
				logger.ErrorCtx(ctx, err, zap.String("component", settlementSweeper.Name()))
			}
		}()
	}

	srv := server.New(server.Config{
		Debug:        cfg.Debug,
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		Auth: middleware.AuthConfig{
			JWTPublicKey: cfg.Auth.JWTPublicKey,
			APIKeys:      cfg.Auth.APIKeys,
			Operator:     operator,
		},
	}, m, payer)

	// Start server in a goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "server"))
	}
	cancel()

	// Create shutdown context with timeout (don't use canceled ctx)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(err, zap.String("component", "server"))
	}
	if settlementSweeper != nil {
		if err := settlementSweeper.Stop(shutdownCtx); err != nil {
			logger.Error(err, zap.String("component", settlementSweeper.Name()))
		}
	}

	logger.Info("Ticket market stopped")
}
