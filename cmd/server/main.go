package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"syscall"

	route "github.com/bassista/go_wind/internal/api/route"
	appctx "github.com/bassista/go_wind/internal/app"
	"github.com/bassista/go_wind/internal/cache"
	"github.com/bassista/go_wind/internal/config"
	"github.com/bassista/go_wind/internal/imagecache"
	"github.com/bassista/go_wind/internal/logger"
	"github.com/bassista/go_wind/internal/repository"
	"github.com/gin-gonic/gin"

	"github.com/enrichman/httpgrace"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithComponent("main").Fatalf("configuration error: %v", err)
	}

	if !logger.SetLevel(cfg.Misc.LogLevel) {
		logger.WithComponent("main").Warnf("invalid log level '%s', keeping '%s'", cfg.Misc.LogLevel, logger.Logger.GetLevel())
	}
	logger.WithComponent("main").Debugf("log level set to: %s", logger.Logger.GetLevel())
	logger.WithComponent("main").Infof("App will run on port: %d", cfg.Server.Port)

	repo, err := repository.NewYAMLRepository(cfg.Data.FilePath)
	if err != nil {
		logger.WithComponent("main").Fatalf("cannot init repository: %v", err)
	}

	// a broken spots file is reported on every page until it is fixed on disk
	doc, loadErr := repo.Load(context.Background())
	if loadErr != nil {
		logger.WithComponent("main").Errorf("cannot load spots file, serving error pages until it is fixed: %v", loadErr)
		doc = &repository.Document{}
	} else {
		logger.WithComponent("main").Infof("loaded %d spots and %d views from %s", len(doc.Spots), len(doc.Views), cfg.Data.FilePath)
	}

	store := cache.NewStore(*doc, repo)
	if loadErr != nil {
		store.Fail(loadErr)
	}

	images, err := imagecache.New(cfg.Images.CacheDir, cfg.Images.MaxAge, imagecache.NewHTTPFetcher(cfg.Images.FetchTimeout))
	if err != nil {
		logger.WithComponent("main").Fatalf("cannot init image cache: %v", err)
	}

	app, err := appctx.New(cfg, repo, store, images)
	if err != nil {
		logger.WithComponent("main").Fatalf("cannot init app: %v", err)
	}
	defer app.Shutdown()

	if err := app.StartWatchers(); err != nil {
		logger.WithComponent("main").Fatalf("cannot start watchers: %v", err)
	}

	gin.SetMode(cfg.Misc.GinMode)
	gin.DefaultWriter = logger.Logger.Writer()
	gin.DefaultErrorWriter = logger.Logger.Writer()

	r, err := route.SetupRoutes(app)
	if err != nil {
		logger.WithComponent("main").Fatalf("cannot set up routes: %v", err)
	}
	srv := createGraceHttpServer(app.BaseCtx, "main", app.Config.Server, r)

	if err := srv.ListenAndServe(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithComponent("main").Fatal(err)
	}
}

func createGraceHttpServer(ctx context.Context, name string, serverConfig config.ServerConfig, r *gin.Engine) *httpgrace.Server {
	slogLogger := slog.New(slog.NewTextHandler(logger.Logger.Writer(), nil))

	srv := httpgrace.NewServer(r,
		httpgrace.WithTimeout(serverConfig.ShutDownTimeout),
		httpgrace.WithSignals(syscall.SIGTERM, syscall.SIGINT),
		httpgrace.WithLogger(slogLogger),
		httpgrace.WithBeforeShutdown(func() {
			logger.WithComponent("http").Infof("Shutting down %s server....", name)
		}),
		httpgrace.WithServerOptions(
			httpgrace.WithReadTimeout(serverConfig.ReadTimeout),
			httpgrace.WithWriteTimeout(serverConfig.WriteTimeout),
			httpgrace.WithIdleTimeout(serverConfig.IdleTimeout),
			func(srv *http.Server) {
				srv.BaseContext = func(_ net.Listener) context.Context {
					return ctx
				}
			},
			func(srv *http.Server) {
				srv.ErrorLog = log.New(logger.Logger.Writer(), fmt.Sprintf("[%s] ", name), log.LstdFlags)
			},
		),
	)
	return srv
}
