package svc

import (
	"database/sql"
	"log"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver
	"github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
	"github.com/zeromicro/go-zero/core/syncx"

	cachekeys "github.com/RobbyMo81/trade-analyst/internal/cache"
	"github.com/RobbyMo81/trade-analyst/internal/config"
	"github.com/RobbyMo81/trade-analyst/internal/ivstore"
	"github.com/RobbyMo81/trade-analyst/pkg/export"
	"github.com/RobbyMo81/trade-analyst/pkg/guardrail"
	"github.com/RobbyMo81/trade-analyst/pkg/marketdata"
	_ "github.com/RobbyMo81/trade-analyst/pkg/marketdata/schwab" // register schwab provider
	simpkg "github.com/RobbyMo81/trade-analyst/pkg/marketdata/sim"
)

type ServiceContext struct {
	Config config.Config
	Gate   guardrail.Gate
	TTL    cachekeys.TTLSet

	MarketDataConfig *marketdata.Config
	Providers        map[string]marketdata.Provider
	DefaultProvider  marketdata.Provider

	IVStore  ivstore.Store
	Exporter *export.Exporter

	DBConn sqlx.SqlConn
	Cache  cache.Cache
}

func NewServiceContext(c config.Config) *ServiceContext {
	svc := &ServiceContext{
		Config: c,
		Gate:   guardrail.NewGate(c.FailOnStub),
		TTL:    cachekeys.NewTTLSet(c.TTL),
	}

	if c.MarketData.Value != nil {
		providers, err := c.MarketData.Value.BuildProviders()
		if err != nil {
			log.Fatalf("failed to build market data providers: %v", err)
		}
		// Registry builders default sim to an enforcing gate; rebuild with
		// the configured one so dev setups can opt into synthetic data.
		for name, provider := range providers {
			if _, ok := provider.(*simpkg.Provider); ok {
				providers[name] = simpkg.New(name, svc.Gate)
			}
		}
		svc.MarketDataConfig = c.MarketData.Value
		svc.Providers = providers

		defaultProvider, err := c.MarketData.Value.DefaultProvider(providers)
		if err != nil {
			log.Fatalf("failed to resolve default market data provider: %v", err)
		}
		svc.DefaultProvider = defaultProvider
	}

	if strings.TrimSpace(c.Redis.Host) != "" {
		svc.Cache = cache.New(
			cache.CacheConf{{RedisConf: c.Redis, Weight: 100}},
			syncx.NewSingleFlight(),
			cache.NewStat("ta"),
			sql.ErrNoRows,
		)
	}

	if c.Postgres.DSN != "" {
		conn := sqlx.NewSqlConn("pgx", c.Postgres.DSN)
		svc.DBConn = conn
		svc.IVStore = ivstore.NewPostgresStore(conn, svc.Cache, svc.TTL)
	} else {
		store, err := ivstore.NewFileStore(c.DataPath)
		if err != nil {
			log.Fatalf("failed to open iv file store: %v", err)
		}
		svc.IVStore = store
	}

	exporter, err := export.NewExporter(svc.Gate, c.Export.Format, c.Export.Dir)
	if err != nil {
		log.Fatalf("failed to build exporter: %v", err)
	}
	svc.Exporter = exporter

	return svc
}
