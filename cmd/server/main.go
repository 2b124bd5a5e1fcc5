package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coffee_shop/internal/config"
	"coffee_shop/internal/database"
	"coffee_shop/internal/handlers"
	"coffee_shop/internal/logger"
	"coffee_shop/internal/migrations"
	"coffee_shop/internal/redis"
	"coffee_shop/internal/repository"
	"coffee_shop/internal/services"
	"coffee_shop/pkg/telegram"

	"github.com/gin-gonic/gin"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	slog.SetDefault(log)

	if err := cfg.ValidateServer(); err != nil {
		return err
	}
	location, err := time.LoadLocation(cfg.Shop.Timezone)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := database.Initialize(cfg.DatabaseURL, log)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := migrations.RunMigrations(ctx, db, log); err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	checks := map[string]handlers.Pinger{"database": sqlDB}

	// Initialize Redis, optional
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = redis.Initialize(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		checks["redis"] = handlers.PingFunc(redisClient.Ping)
	} else {
		log.Warn("REDIS_URL is not set: update de-duplication and order events are disabled")
	}

	bot := telegram.NewClient(cfg.TelegramAPIURL, cfg.BotToken)

	// Notification sinks
	adminNotifier := services.NewAdminNotifier(bot, cfg.AdminChatID, cfg.Shop.CurrencySymbol, location, log)
	sinks := []services.NotificationService{adminNotifier}
	var guard handlers.UpdateGuard = handlers.AllowAllUpdates{}
	var eventNotifier *services.EventNotifier
	if redisClient != nil {
		eventNotifier = services.NewEventNotifier(redisClient, cfg.OrderEventsChannel, log)
		sinks = append(sinks, eventNotifier)
		guard = handlers.NewUpdateGuard(redisClient, time.Duration(cfg.UpdateDedupTTL)*time.Second)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	menuRepo := repository.NewMenuRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	// Initialize services
	userService := services.NewUserService(userRepo, log)
	menuService := services.NewMenuService(menuRepo)
	orderService := services.NewOrderService(orderRepo, userService, services.NewMultiNotifier(sinks...), log)

	// Initialize handlers
	telegramHandler := handlers.NewTelegramHandler(bot, userService, menuService, orderService, guard, handlers.TelegramSettings{
		WebAppURL:     cfg.WebAppURL,
		WebhookSecret: cfg.TelegramWebhookSecret,
		Shop:          cfg.Shop,
		Location:      location,
	}, log)
	apiHandler := handlers.NewAPIHandler(checks)

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           handlers.NewRouter(telegramHandler, apiHandler, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var pollerDone chan struct{}
	switch cfg.TelegramMode {
	case config.ModeWebhook:
		err := bot.SetWebhook(ctx, telegram.SetWebhookRequest{
			URL:            cfg.TelegramWebhookURL,
			SecretToken:    cfg.TelegramWebhookSecret,
			AllowedUpdates: []string{"message", "callback_query"},
		})
		if err != nil {
			return err
		}
		log.Info("webhook registered", "url", cfg.TelegramWebhookURL)
	default:
		if err := bot.DeleteWebhook(ctx, telegram.DeleteWebhookRequest{}); err != nil {
			return err
		}
		pollerDone = make(chan struct{})
		go func() {
			defer close(pollerDone)
			handlers.NewPoller(bot, telegramHandler, log).Run(ctx)
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serverErr:
		// Stops the poller too.
		stop()
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", "error", err)
	}
	notifiers := []waiter{adminNotifier}
	if eventNotifier != nil {
		notifiers = append(notifiers, eventNotifier)
	}
	drain(pollerDone, notifiers...)
	return runErr
}

type waiter interface {
	Wait()
}

// drain blocks until the poller has returned and then until every notifier
// has delivered. An update still being processed may commit an order and
// dispatch a notification, so the notifiers are only waited on afterwards.
func drain(pollerDone <-chan struct{}, notifiers ...waiter) {
	if pollerDone != nil {
		<-pollerDone
	}
	for _, n := range notifiers {
		n.Wait()
	}
}
