// Один цикл на запуск: логика та же, что у cmd/bot, но без цикла и сна —
// перезапуск по расписанию отдан внешнему шедулеру (cron / Actions).
package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"intraday_bot/internal/broker"
	"intraday_bot/internal/broker/smartapi"
	"intraday_bot/internal/modules/config"
	"intraday_bot/internal/notify"
	"intraday_bot/internal/session"
	"intraday_bot/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	logger.SetServiceName("intraday-scan")
	if err := logger.Init(); err != nil {
		log.Fatal(err)
	}

	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatal("config: %v", err)
	}

	var api broker.SessionAPI = smartapi.NewClient(cfg)

	var n notify.Notifier = notify.NewStdout()
	if cfg.Telegram.Token != "" && cfg.Telegram.ChatID != 0 {
		if tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, api); err == nil {
			n = tg
		}
	}

	s, err := session.NewScheduler(cfg, api, n)
	if err != nil {
		logger.Fatal("scheduler: %v", err)
	}

	ctx := context.Background()
	if err := s.Bootstrap(ctx); err != nil {
		logger.Fatal("bootstrap: %v", err)
	}

	ph := s.RunOnce(ctx)
	logger.Info("[SCAN] цикл завершён, фаза=%s", ph)
}
