package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	glog "github.com/labstack/gommon/log"

	"github.com/iliyamo/document-tracking/internal/config"
	"github.com/iliyamo/document-tracking/internal/database"
	"github.com/iliyamo/document-tracking/internal/handler"
	"github.com/iliyamo/document-tracking/internal/mailer"
	"github.com/iliyamo/document-tracking/internal/middleware"
	"github.com/iliyamo/document-tracking/internal/queue"
	"github.com/iliyamo/document-tracking/internal/repository"
	"github.com/iliyamo/document-tracking/internal/router"
	"github.com/iliyamo/document-tracking/internal/service"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		log.Printf("redis unreachable; rate limiting and search cache disabled")
	} else {
		defer rdb.Close()
	}
	cacheCfg := config.LoadCacheConfig()

	eventsCfg := config.LoadEventsConfig()
	if eventsCfg.Enabled && eventsCfg.ConsumerEnabled {
		go queue.StartDocumentEventConsumer(eventsCfg)
	}

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(logLevel(cfg.LogLevel))
	e.HTTPErrorHandler = handler.ErrorHandler
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			if v.Error != nil {
				c.Logger().Warnf("%s %s -> %d (%s): %v", v.Method, v.URI, v.Status, v.Latency, v.Error)
				return nil
			}
			c.Logger().Infof("%s %s -> %d (%s)", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))
	if cfg.Env == "prod" && cfg.StaticDir != "" {
		e.Use(echomw.StaticWithConfig(echomw.StaticConfig{Root: cfg.StaticDir, HTML5: true}))
	}

	auth := handler.NewAuthHandler(cfg, repository.NewAccountRepo(db), mailer.NewClient(config.LoadEmailConfig(), cfg.ResetTokenTTL))
	docs := handler.NewDocumentHandler(
		repository.NewDocumentRepo(db),
		service.NewEventPublisher(eventsCfg),
		func(ctx context.Context) error { return middleware.InvalidateCache(ctx, cacheCfg, rdb) },
	)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, auth, middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	router.RegisterDocuments(e, docs, cfg, middleware.NewRedisCache(cacheCfg, rdb))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, auth=%s)", addr, cfg.Env, cfg.AuthMode)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

func logLevel(s string) glog.Lvl {
	switch s {
	case "debug":
		return glog.DEBUG
	case "warn":
		return glog.WARN
	case "error":
		return glog.ERROR
	case "off":
		return glog.OFF
	}
	return glog.INFO
}
