package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"scorechain/internal/chain"
	"scorechain/internal/config"
	"scorechain/internal/idempotency"
	"scorechain/internal/observability"
	"scorechain/internal/opstatus"
	"scorechain/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := observability.NewLogger(cfg.Service.Env)

	var store idempotency.Store = idempotency.NewMemoryStore()
	if cfg.Service.PostgresDSN != "" {
		pgStore, err := idempotency.NewPostgresStore(context.Background(), cfg.Service.PostgresDSN)
		if err != nil {
			log.Fatalf("idempotency store error: %v", err)
		}
		defer pgStore.Close()
		store = pgStore
	}

	var chainClient chain.Client = chain.NewFakeClient()
	if cfg.Chain.PrivateKey != "" {
		ethClient, err := chain.NewEthClient(context.Background(), chain.EthClientConfig{
			RPCURL:          cfg.Chain.RPCURL,
			PrivateKeyHex:   cfg.Chain.PrivateKey,
			ContractAddress: cfg.Deployment.Contracts.CreditScoreRegistry,
			ChainID:         cfg.Chain.ChainID,
		})
		if err != nil {
			log.Fatalf("chain client error: %v", err)
		}
		chainClient = ethClient
	} else {
		logger.Warn("CHAIN_PRIVATE_KEY not set, using in-memory fake registry")
	}

	tracker := opstatus.NewTracker()
	apiServer := server.NewServer(cfg, chainClient, store, tracker, logger)

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Info("server stopped", "err", err)
		}
	}()

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = apiServer.Shutdown(ctx)
}
