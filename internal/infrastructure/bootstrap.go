package infrastructure

import (
	"context"

	"contactfinder/internal/config"
	"contactfinder/internal/gateway"
	"contactfinder/internal/repository"
	"contactfinder/internal/service"
	transportHTTP "contactfinder/internal/transport/http"
	transportNATS "contactfinder/internal/transport/nats"
	"contactfinder/internal/worker"
)

// Bootstrap initialises all dependencies from config and wires up the
// application. Returns the App, a cleanup function, or an error.
func Bootstrap(ctx context.Context) (*App, func(), error) {
	cfg, err := config.New()
	if err != nil {
		return nil, nil, err
	}

	db, err := connectPostgres(cfg.DSN())
	if err != nil {
		return nil, nil, err
	}

	rdb, err := connectRedis(cfg.RedisAddr())
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	var cleanupFns []func()
	cleanupFns = append(cleanupFns, func() {
		db.Close()
		_ = rdb.Close()
	})

	store := repository.NewStore(db)
	cache := repository.NewBalanceCache(rdb)
	ledger := service.NewCreditLedger(store)
	lookup := gateway.NewSuggestClient(cfg.GatewayURL, cfg.GatewayToken, cfg.GatewaySecret)

	opts := service.Options{
		Cache:           cache,
		SearchCost:      cfg.SearchCost,
		StartingCredits: cfg.StartingCredits,
		LookupTimeout:   cfg.GatewayTimeout,
	}

	var servers []Server

	if cfg.NatsOn() {
		nc, err := connectNats(cfg.NatsAddr())
		if err != nil {
			return nil, runCleanup(cleanupFns), err
		}
		cleanupFns = append(cleanupFns, nc.Close)
		opts.Bus = transportNATS.NewBus(nc)

		svc := service.NewAccountant(store, ledger, lookup, opts)

		servers = append(servers, transportNATS.NewHandler(svc, nc))
		servers = append(servers, worker.NewCacheWorker(svc, nc))
		if addr, apiErr := cfg.ApiAddr(); apiErr == nil {
			servers = append(servers, transportHTTP.NewServer(addr, svc))
		}
	} else {
		svc := service.NewAccountant(store, ledger, lookup, opts)
		if addr, apiErr := cfg.ApiAddr(); apiErr == nil {
			servers = append(servers, transportHTTP.NewServer(addr, svc))
		}
	}

	return NewApp(servers), runCleanup(cleanupFns), nil
}

// runCleanup returns a single function that calls all cleanup functions in reverse order.
func runCleanup(fns []func()) func() {
	return func() {
		for i := len(fns) - 1; i >= 0; i-- {
			fns[i]()
		}
	}
}
