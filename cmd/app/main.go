package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/bot"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/config"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/db"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/game"
	httpServer "github.com/wearedev-studio/preskillbitbacket-sub001/internal/http"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/http/handlers"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/jobs"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/logger"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/repository"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/room"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/service"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/tournament"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/ws"
)

// Version устанавливается при сборке
var Version = "dev"

func main() {
	cfg := config.Load()

	logger.Init(cfg.LogLevel, cfg.LogFormat == "json")
	log := logger.Get()

	service.InitJWT()

	dbPool := db.Connect(cfg.DatabaseURL)
	defer dbPool.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal("bad REDIS_URL", "error", err)
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		// без redis работаем: снапшоты и лимиты просто не сохраняются
		log.Warn("redis unavailable", "error", err)
	}

	userRepo := repository.NewUserRepository(dbPool)
	balance := service.NewBalanceService(dbPool)
	audit := service.NewAuditService(dbPool)
	records := service.NewRecordService(dbPool, audit)
	notifications := service.NewNotificationService(dbPool)

	var notifyBot *bot.NotifyBot
	if cfg.NotifyBotEnabled && cfg.BotToken != "" {
		notifyBot, err = bot.NewNotifyBot(cfg.BotToken, userRepo, cfg.WebAppURL)
		if err != nil {
			log.Error("failed to start notify bot", "error", err)
		} else {
			notifications.SetPusher(notifyBot)
			go notifyBot.Start()
		}
	}

	registry := game.NewRegistry()
	hub := ws.NewHub()

	rooms := room.NewManager(cfg.Room, room.Deps{
		Registry: registry,
		Gateway:  hub,
		Ledger:   balance,
		Recorder: records,
		Store:    repository.NewSessionStore(rdb, cfg.Room.SnapshotTTL),
	})
	tournaments := tournament.NewManager(cfg.Tournament, tournament.Deps{
		Registry: registry,
		Gateway:  hub,
		Ledger:   balance,
		Recorder: records,
		Notifier: notifications,
		Repo:     repository.NewTournamentRepository(dbPool),
		Audit:    audit,
	})

	wsRouter := ws.NewRouter(rooms, tournaments, hub,
		repository.NewRateLimiter(rdb, cfg.WSRateLimit, cfg.RateWindow))
	wsHandler := ws.NewWSHandler(hub, wsRouter, cfg.AllowedOrigin)

	r := gin.Default()
	r.Use(httpServer.CORS(cfg.AllowedOrigin))

	httpServer.RegisterRoutes(r, &handlers.Handler{
		BotToken:      cfg.BotToken,
		Users:         userRepo,
		Transactions:  balance,
		Records:       records,
		Notifications: notifications,
		Audit:         audit,
		Registry:      registry,
		Rooms:         rooms,
		Tournaments:   tournaments,
	}, wsHandler, repository.NewRateLimiter(rdb, cfg.APIRateLimit, cfg.RateWindow))

	scheduler, err := jobs.New(cfg, jobs.Deps{
		Rooms:       rooms,
		Tournaments: tournaments,
		Templates:   tournaments,
	})
	if err != nil {
		logger.Fatal("scheduler init failed", "error", err)
	}
	scheduler.Start()

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		log.Info("server started", "port", cfg.AppPort, "version", Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	if err := scheduler.Shutdown(); err != nil {
		log.Error("scheduler shutdown failed", "error", err)
	}
	if notifyBot != nil {
		notifyBot.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", "error", err)
	}

	log.Info("server exited")
}
