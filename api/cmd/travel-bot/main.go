package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"travel-planner/api/internal/app"
	"travel-planner/api/internal/config"
	"travel-planner/api/internal/handle"
	"travel-planner/api/internal/httpserver"
	"travel-planner/api/internal/logging"
	"travel-planner/api/internal/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if cfg.TelegramBotToken == "" {
		log.Fatal("missing required env TELEGRAM_BOT_TOKEN")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("startup failed", zap.Error(err))
	}
	defer func() { _ = a.Close() }()
	go a.PurgeLoop(ctx)

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Fatal("telegram", zap.Error(err))
	}
	bot.Debug = false
	r := telegram.NewRouter(bot, a.Travel, log, cfg.RequestTimeout)

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpserver.NewRouter(log)
	router.GET("/healthz", handle.New(nil, nil, a.DB, log, cfg.RequestTimeout).Health)

	if webhookURL := strings.TrimSpace(cfg.WebhookURL); webhookURL != "" {
		if err := setWebhook(ctx, bot, router, r, webhookURL, log); err != nil {
			log.Fatal("webhook", zap.Error(err))
		}
	} else {
		if _, err := bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
			log.Warn("delete webhook", zap.Error(err))
		}
		go runPolling(ctx, bot, log, func(upd tgbotapi.Update) { r.HandleUpdate(ctx, upd) })
	}

	srv := httpserver.New(httpserver.Addr(cfg.Port), router, log)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			log.Error("http server stopped", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", zap.Error(err))
	}
}

// setWebhook registers the public URL with Telegram and mounts the update
// handler on a path derived from the bot token.
func setWebhook(ctx context.Context, bot *tgbotapi.BotAPI, router gin.IRouter, r *telegram.Router, baseURL string, log *zap.Logger) error {
	path := "/webhook/" + shortHash(bot.Token)
	public := strings.TrimRight(baseURL, "/") + path

	wh, err := tgbotapi.NewWebhook(public)
	if err != nil {
		return err
	}
	wh.DropPendingUpdates = true
	if _, err := bot.Request(wh); err != nil {
		return err
	}

	router.POST(path, func(c *gin.Context) {
		upd, err := bot.HandleUpdate(c.Request)
		if err != nil {
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}
		// Telegram retries on slow responses; answer first, work after.
		go r.HandleUpdate(ctx, *upd)
		c.Status(http.StatusOK)
	})
	log.Info("webhook registered", zap.String("path", path))
	return nil
}

// shortHash hides the bot token in the webhook path.
func shortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:8])
}
