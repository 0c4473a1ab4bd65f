package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	repertoire "github.com/karpatkey/defi-repertoire"
	"github.com/karpatkey/defi-repertoire/cache"
	"github.com/karpatkey/defi-repertoire/chain"
	"github.com/karpatkey/defi-repertoire/datasource"
	"github.com/karpatkey/defi-repertoire/internal/config"
	"github.com/karpatkey/defi-repertoire/internal/logger"
	"github.com/karpatkey/defi-repertoire/strategies"
)

// app holds the process-wide collaborators shared by every command.
type app struct {
	cfg     config.Config
	zap     *zap.Logger
	promReg *prometheus.Registry
	readers *readerPool
	system  *repertoire.System
}

func newApp(cfgPath string) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	zl, err := logger.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	kv := logger.NewKV(zl)

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	httpClient := &http.Client{Timeout: cfg.DataSource.Timeout}
	cacheCfg := datasource.CacheConfig{
		Fresh:   cfg.Cache.Fresh,
		Stale:   cfg.Cache.Stale,
		Metrics: cache.NewMetrics(promReg, cfg.App.Name),
		Logger:  kv.With("component", "cache"),
	}
	pools, err := datasource.CachedPools(datasource.NewBalancerAPI(datasource.BalancerAPIConfig{
		Endpoint:   cfg.DataSource.BalancerAPI,
		MinTVL:     cfg.DataSource.MinTVL,
		HTTPClient: httpClient,
	}), cacheCfg)
	if err != nil {
		return nil, fmt.Errorf("pool cache: %w", err)
	}
	tokens, err := datasource.CachedTokens(datasource.NewUniswapSubgraph(datasource.UniswapSubgraphConfig{
		APIKey:     cfg.DataSource.TheGraphAPIKey,
		GatewayURL: cfg.DataSource.UniswapGateway,
		HTTPClient: httpClient,
	}), cacheCfg)
	if err != nil {
		return nil, fmt.Errorf("token cache: %w", err)
	}

	registry, err := strategies.NewRegistry(strategies.Deps{
		Pools:               pools,
		Tokens:              tokens,
		MaxConcurrentQuotes: cfg.Swap.MaxConcurrentQuotes,
	})
	if err != nil {
		return nil, err
	}

	readers := newReaderPool(cfg)
	system, err := repertoire.NewSystem(&repertoire.Config{
		SystemName:    cfg.App.Name,
		PrometheusReg: promReg,
		Registry:      registry,
		GetReader:     readers.get,
		Logger:        kv.With("component", "system"),
	})
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:     cfg,
		zap:     zl,
		promReg: promReg,
		readers: readers,
		system:  system,
	}, nil
}

func (a *app) close() {
	a.readers.close()
	_ = a.zap.Sync()
}

// readerPool dials one RPC client per chain on first use and reuses it.
type readerPool struct {
	cfg     config.Config
	mu      sync.Mutex
	clients map[uint64]*ethclient.Client
}

func newReaderPool(cfg config.Config) *readerPool {
	return &readerPool{cfg: cfg, clients: make(map[uint64]*ethclient.Client)}
}

func (p *readerPool) get(ctx context.Context, bc chain.Blockchain) (chain.Reader, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.clients[bc.ChainID]; ok {
		return c, nil
	}
	url, ok := p.cfg.RPCURL(bc)
	if !ok {
		return nil, fmt.Errorf("no rpc endpoint configured for %s", bc.Name)
	}
	c, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", bc.Name, err)
	}
	p.clients[bc.ChainID] = c
	return c, nil
}

func (p *readerPool) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, c := range p.clients {
		c.Close()
		delete(p.clients, id)
	}
}
