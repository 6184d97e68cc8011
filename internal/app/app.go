package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/bassista/go_wind/internal/cache"
	"github.com/bassista/go_wind/internal/config"
	"github.com/bassista/go_wind/internal/imagecache"
	"github.com/bassista/go_wind/internal/logger"
	"github.com/bassista/go_wind/internal/repository"
)

// App is the application container (immutable dependencies + lifecycle context).
// It is not a request context; handlers should still use gin's request context.
type App struct {
	Config *config.Config
	Repo   repository.Repository
	Store  cache.AppStore
	Images *imagecache.Cache

	Prefetcher *imagecache.Prefetcher

	BaseCtx context.Context
	Cancel  context.CancelFunc
}

func New(cfg *config.Config, repo repository.Repository, store cache.AppStore, images *imagecache.Cache) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if repo == nil {
		return nil, errors.New("repo is nil")
	}
	if store == nil {
		return nil, errors.New("cache store is nil")
	}
	if images == nil {
		return nil, errors.New("image cache is nil")
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		Config:  cfg,
		Repo:    repo,
		Store:   store,
		Images:  images,
		BaseCtx: ctx,
		Cancel:  cancel,
	}, nil
}

// Shutdown cancels the base context, which stops the file watcher and the
// chart prefetcher.
func (a *App) Shutdown() {
	if a == nil || a.Cancel == nil {
		return
	}
	a.Cancel()
}

// StartWatchers starts the spots file watcher and, when an interval is
// configured, the chart prefetcher.
func (a *App) StartWatchers() error {
	if err := a.Repo.StartWatcher(a.BaseCtx, a.Store); err != nil {
		return fmt.Errorf("start spots file watcher: %w", err)
	}

	interval := a.Config.Images.PrefetchInterval
	if interval <= 0 {
		logger.WithComponent("app").Debug("chart prefetch disabled")
		return nil
	}

	a.Prefetcher = imagecache.NewPrefetcher(a.Images, interval, a.Config.Images.FetchTimeout*2)
	if err := a.Prefetcher.Start(a.BaseCtx); err != nil {
		return fmt.Errorf("start chart prefetcher: %w", err)
	}
	return nil
}
