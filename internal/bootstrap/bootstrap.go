// Package bootstrap arma el servicio completo a partir del archivo de
// configuración: logger, stores, alianzas, mercado, caché y el handler
// HTTP. Los cmd solo cargan config y delegan acá.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Superskyyy/niuniu-plus/internal/alliance"
	"github.com/Superskyyy/niuniu-plus/internal/cache"
	"github.com/Superskyyy/niuniu-plus/internal/config"
	"github.com/Superskyyy/niuniu-plus/internal/game"
	httpx "github.com/Superskyyy/niuniu-plus/internal/http"
	"github.com/Superskyyy/niuniu-plus/internal/metrics"
	"github.com/Superskyyy/niuniu-plus/internal/observability/logger"
	"github.com/Superskyyy/niuniu-plus/internal/stock"
	"github.com/Superskyyy/niuniu-plus/internal/store"
	"github.com/Superskyyy/niuniu-plus/internal/transport/onebot"
)

// App es el servicio armado, listo para servir.
type App struct {
	Cfg     *config.Config
	Service *game.Service
	Handler http.Handler

	cacheClient cache.Client
}

// Build construye el App desde la configuración ya cargada.
func Build(cfg *config.Config) (*App, error) {
	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "niuniu-plus",
	})

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return nil, fmt.Errorf("bootstrap: métricas: %w", err)
	}

	if err := os.MkdirAll(cfg.Data.Root, 0o755); err != nil {
		return nil, fmt.Errorf("bootstrap: data root: %w", err)
	}

	memTTL, _ := time.ParseDuration(cfg.Cache.Memory.DefaultTTL)
	cc, err := cache.New(cache.Config{
		Driver:     cfg.Cache.Kind,
		Addr:       cfg.Cache.Redis.Addr,
		DB:         cfg.Cache.Redis.DB,
		Prefix:     cfg.Cache.Redis.Prefix,
		DefaultTTL: memTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("bootstrap: caché: %w", err)
	}

	parts := store.New(cfg.Data.Root)
	reg := alliance.NewRegistryStore(cfg.Data.Root)
	locks := alliance.NewLockSet()
	isAdmin := cfg.IsAdmin

	botTimeout, _ := time.ParseDuration(cfg.Bot.Timeout)
	deliverer := onebot.New(cfg.Bot.APIBase, cfg.Bot.Token, botTimeout)

	rankingTTL, _ := time.ParseDuration(cfg.Game.RankingTTL)
	svc := game.New(game.Deps{
		Parts:      parts,
		Registry:   reg,
		Resolver:   alliance.NewResolver(reg),
		Sync:       alliance.NewSynchronizer(reg, parts, locks),
		Lifecycle:  alliance.NewLifecycle(reg, parts, locks, isAdmin, func() int64 { return time.Now().Unix() }),
		Broadcast:  alliance.NewBroadcaster(reg, deliverer),
		Market:     stock.New(cfg.Data.Root, cfg.Game.Seed),
		Cache:      cc,
		IsAdmin:    isAdmin,
		RankingTTL: rankingTTL,
		Seed:       cfg.Game.Seed,
	})

	srv := httpx.NewServer(svc, cfg.Bot.Token)
	return &App{
		Cfg:         cfg,
		Service:     svc,
		Handler:     srv.Handler(),
		cacheClient: cc,
	}, nil
}

// Run sirve HTTP hasta que el contexto se cancele.
func (a *App) Run(ctx context.Context) error {
	logger.L().Info("serving",
		logger.Any("addr", a.Cfg.Server.Addr),
		logger.Any("data_root", a.Cfg.Data.Root),
	)
	return httpx.Start(ctx, a.Cfg.Server.Addr, a.Handler)
}

// Close libera recursos (conexión de caché).
func (a *App) Close() error {
	logger.Sync()
	return a.cacheClient.Close()
}
