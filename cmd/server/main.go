package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	eventrelay "fundledger/internal/events/relay"
	eventstore "fundledger/internal/events/store"
	"fundledger/internal/exchange"
	httpapi "fundledger/internal/http"
	jwttoken "fundledger/internal/jwt_token"
	"fundledger/internal/ledger/guard"
	ledgerhandler "fundledger/internal/ledger/handler"
	ledgermetrics "fundledger/internal/ledger/metrics"
	ledgerservice "fundledger/internal/ledger/service"
	ledgerstore "fundledger/internal/ledger/store"
	"fundledger/internal/platform/config"
	"fundledger/internal/platform/httpserver"
	"fundledger/internal/platform/kafka"
	"fundledger/internal/platform/logger"
	"fundledger/internal/platform/metrics"
	"fundledger/internal/platform/postgres"
	platformredis "fundledger/internal/platform/redis"
	receipthandler "fundledger/internal/receipt/handler"
	receiptmetrics "fundledger/internal/receipt/metrics"
	receiptservice "fundledger/internal/receipt/service"
	receiptstore "fundledger/internal/receipt/store"
	"fundledger/internal/settlement"
	"fundledger/pkg/domain"
	"fundledger/pkg/platform/tx"
)

const shutdownTimeout = 10 * time.Second

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	tokenFor := flag.String("token-for", "", "print a signed access token for this address and exit")
	tokenTTL := flag.Duration("token-ttl", time.Hour, "lifetime of a token printed by -token-for")
	flag.Parse()

	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer)

	if *tokenFor != "" {
		if err := printToken(jwtService, *tokenFor, *tokenTTL); err != nil {
			log.Error("failed to issue token", "error", err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, jwtService); err != nil {
		log.Error("fundledger stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("fundledger stopped")
}

func printToken(jwtService *jwttoken.JWTService, address string, ttl time.Duration) error {
	caller, err := domain.ParseAddress(address)
	if err != nil {
		return err
	}
	token, err := jwtService.GenerateAccessToken(caller, ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, token)
	return err
}

// storage bundles the stores and the unit-of-work runner for one backend.
type storage struct {
	campaigns campaignStore
	events    eventStore
	receipts  receiptservice.Store
	tx        ledgerservice.StoreTx
	db        *sql.DB
}

// campaignStore is satisfied by both campaign store backends.
type campaignStore interface {
	ledgerservice.Store
	Held(ctx context.Context) (domain.Amount, error)
}

// eventStore is satisfied by both event store backends.
type eventStore interface {
	ledgerservice.EventStore
	eventrelay.Store
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger, jwtService *jwttoken.JWTService) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	addrs, err := parseAddresses(cfg)
	if err != nil {
		return err
	}

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	if store.db != nil {
		defer store.db.Close()
	}

	checks := map[string]httpapi.HealthCheck{}
	if store.db != nil {
		checks["postgres"] = store.db.PingContext
	}

	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	var withdrawGuard ledgerservice.Guard = guard.NewLocal()
	if redisClient != nil {
		defer redisClient.Close()
		withdrawGuard = guard.NewRedis(redisClient.Client, guard.WithTTL(cfg.Redis.LockTTL))
		checks["redis"] = redisClient.Health
		log.Info("withdrawal guard backed by redis")
	}

	venue, err := newExchange(cfg, addrs.settlement, log, reg)
	if err != nil {
		return err
	}

	vaultFloat, err := domain.ParseAmount(cfg.VaultFloat)
	if err != nil {
		return fmt.Errorf("parse VAULT_FLOAT: %w", err)
	}
	// Custody starts with every undisbursed campaign balance left by a previous run.
	held, err := store.campaigns.Held(ctx)
	if err != nil {
		return fmt.Errorf("load campaign balances: %w", err)
	}
	custodyBalance, err := vaultFloat.Add(held)
	if err != nil {
		return fmt.Errorf("seed vault: %w", err)
	}
	vault := settlement.NewMemoryVault(settlement.WithFloat(custodyBalance), settlement.WithLogger(log))
	log.Info("vault seeded", "float", vaultFloat.String(), "held", held.String())

	receipts := receiptservice.New(store.receipts,
		receiptservice.WithLogger(log),
		receiptservice.WithMetrics(receiptmetrics.New(reg)),
	)

	ledger, err := ledgerservice.New(ledgerservice.Deps{
		Store:    store.campaigns,
		Events:   store.events,
		Receipts: receipts,
		Exchange: venue,
		Vault:    vault,
		Guard:    withdrawGuard,
		Tx:       store.tx,
	}, ledgerservice.Config{
		Authority:       addrs.authority,
		SettlementAsset: addrs.settlement,
		Custody:         addrs.custody,
	},
		ledgerservice.WithLogger(log),
		ledgerservice.WithMetrics(ledgermetrics.New(reg)),
		ledgerservice.WithTracer(otel.Tracer("fundledger/ledger")),
	)
	if err != nil {
		return err
	}

	httpMetrics := metrics.NewWithRegisterer(reg)
	validator := jwttoken.NewJWTServiceAdapter(jwtService)
	router := httpapi.NewRouter(log, reg, checks,
		ledgerhandler.New(ledger, log, httpMetrics, validator),
		receipthandler.New(receipts, log, httpMetrics, validator),
	)
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting fundledger", "addr", cfg.Addr, "authority", addrs.authority.Hex())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return fmt.Errorf("connect kafka: %w", err)
		}
		defer producer.Close()
		if err := producer.EnsureTopic(ctx, 3, 1); err != nil {
			log.Warn("could not ensure outbox topic", "topic", producer.Topic(), "error", err)
		}
		worker := eventrelay.NewWorker(store.events, producer, store.tx,
			eventrelay.WithLogger(log),
			eventrelay.WithMetrics(eventrelay.NewMetrics(reg)),
			eventrelay.WithInterval(cfg.Kafka.PollInterval),
			eventrelay.WithBatchSize(cfg.Kafka.BatchSize),
		)
		g.Go(func() error {
			if err := worker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("outbox relay: %w", err)
			}
			return nil
		})
	} else {
		log.Info("kafka not configured, ledger events stay in the outbox")
	}

	return g.Wait()
}

func openStorage(ctx context.Context, cfg config.Server, log *slog.Logger) (*storage, error) {
	if cfg.DatabaseURL == "" {
		campaigns := ledgerstore.NewInMemory()
		evs := eventstore.NewInMemory()
		receipts := receiptstore.NewInMemory()
		log.Info("using in-memory storage")
		return &storage{
			campaigns: campaigns,
			events:    evs,
			receipts:  receipts,
			tx:        tx.NewMemory(campaigns, evs, receipts),
		}, nil
	}

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}
	log.Info("using postgres storage")
	return &storage{
		campaigns: ledgerstore.NewPostgres(db),
		events:    eventstore.NewPostgres(db),
		receipts:  receiptstore.NewPostgres(db),
		tx:        newPostgresTx(db),
		db:        db,
	}, nil
}

func newExchange(cfg config.Server, settlementAsset domain.Address, log *slog.Logger, reg prometheus.Registerer) (ledgerservice.Exchange, error) {
	if cfg.Exchange.URL != "" {
		gateway, err := exchange.NewHTTPGateway(exchange.Options{
			BaseURL:          cfg.Exchange.URL,
			RequestTimeout:   cfg.Exchange.Timeout,
			FailureThreshold: cfg.Exchange.FailureThreshold,
			SuccessThreshold: cfg.Exchange.SuccessThreshold,
			Logger:           log,
			Metrics:          exchange.NewMetrics(reg),
		})
		if err != nil {
			return nil, err
		}
		log.Info("using http exchange venue", "url", cfg.Exchange.URL)
		return gateway, nil
	}
	rates, err := exchange.ParseRates(cfg.Exchange.Rates)
	if err != nil {
		return nil, fmt.Errorf("parse EXCHANGE_RATES: %w", err)
	}
	log.Info("using fixed-rate exchange book", "tokens", len(rates))
	return exchange.NewFixedRateBook(settlementAsset, rates), nil
}

type addresses struct {
	authority  domain.Address
	settlement domain.Address
	custody    domain.Address
}

func parseAddresses(cfg config.Server) (addresses, error) {
	authority, err := domain.ParseAddress(cfg.Authority)
	if err != nil {
		return addresses{}, fmt.Errorf("parse AUTHORITY_ADDRESS: %w", err)
	}
	settlementAsset, err := domain.ParseAddress(cfg.SettlementAsset)
	if err != nil {
		return addresses{}, fmt.Errorf("parse SETTLEMENT_ASSET: %w", err)
	}
	custody, err := domain.ParseAddress(cfg.Custody)
	if err != nil {
		return addresses{}, fmt.Errorf("parse CUSTODY_ADDRESS: %w", err)
	}
	return addresses{authority: authority, settlement: settlementAsset, custody: custody}, nil
}
