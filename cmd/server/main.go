package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/concert-reservation/internal/config"
	"github.com/iliyamo/concert-reservation/internal/database"
	"github.com/iliyamo/concert-reservation/internal/handler"
	"github.com/iliyamo/concert-reservation/internal/middleware"
	"github.com/iliyamo/concert-reservation/internal/queue"
	"github.com/iliyamo/concert-reservation/internal/repository"
	"github.com/iliyamo/concert-reservation/internal/router"
	"github.com/iliyamo/concert-reservation/internal/service"
)

func main() {
	cfg := config.Load()

	e := echo.New()
	e.HideBanner = true
	if cfg.Env == "prod" {
		e.Logger.SetLevel(log.INFO)
	} else {
		e.Logger.SetLevel(log.DEBUG)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// stores
	users := repository.NewUserRepo()
	concerts := repository.NewConcertRepo()
	if cfg.SeedData {
		users.Seed()
		concerts.Seed()
	}
	var publisher repository.EventPublisher
	var outbox *service.AsyncPublisher
	if cfg.EventsEnabled {
		outbox = service.NewAsyncPublisher(service.NewQueuePublisher(cfg.AMQPURL), cfg.EventsBuffer)
		publisher = outbox
	}
	reservations := repository.NewReservationRepo(users, concerts, publisher)

	// optional audit sink
	var events *repository.EventRepo
	if cfg.DatabaseEnabled() {
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			e.Logger.Fatalf("database: %v", err)
		}
		defer db.Close()
		if err := database.EnsureSchema(ctx, db); err != nil {
			e.Logger.Fatalf("database: %v", err)
		}
		events = repository.NewEventRepo(db)
	}
	if cfg.EventsEnabled && cfg.RunConsumer {
		var sink queue.Sink = queue.FileSink{Path: cfg.EventsLogPath}
		if events != nil {
			sink = events
		}
		go func() {
			if err := queue.StartReservationConsumer(ctx, cfg.AMQPURL, sink); err != nil && !errors.Is(err, context.Canceled) {
				e.Logger.Errorf("reservation consumer stopped: %v", err)
			}
		}()
	}

	// optional redis
	rdb := config.NewRedisClient()
	if rdb == nil {
		e.Logger.Info("redis not configured or unreachable; caching and rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			if v.Error != nil {
				c.Logger().Errorf("%s %s -> %d (%s): %v", v.Method, v.URI, v.Status, v.Latency, v.Error)
				return nil
			}
			c.Logger().Infof("%s %s -> %d (%s)", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, middleware.HeaderRole, middleware.HeaderUserID},
		AllowCredentials: true,
	}))
	e.Use(middleware.Identity())

	opts := router.Options{
		RoleGuard: cfg.RoleGuard,
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		Cache:     middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	}
	router.RegisterRoutes(e)
	router.RegisterUsers(e, handler.NewUserHandler(users), opts)
	router.RegisterConcerts(e, handler.NewConcertHandler(concerts, reservations), opts)
	router.RegisterReservations(e, handler.NewReservationHandler(reservations, events), opts)

	addr := ":" + cfg.Port
	e.Logger.Infof("listening on %s (env=%s, role guard=%t, events=%t, audit=%t)",
		addr, cfg.Env, cfg.RoleGuard, cfg.EventsEnabled, events != nil)

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.Logger.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		e.Logger.Error(err)
	}
	if outbox != nil {
		if err := outbox.Close(shutdownCtx); err != nil {
			e.Logger.Warnf("reservation events not flushed: %v", err)
		}
	}
}
