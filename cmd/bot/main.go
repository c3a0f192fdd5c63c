package main

import (
	"context"
	"log"

	"go.uber.org/fx"

	"intraday_bot/internal/modules/config"
	"intraday_bot/internal/session"
	"intraday_bot/pkg/logger"
)

func main() {
	logger.SetServiceName("intraday-bot")
	if err := logger.Init(); err != nil {
		log.Fatal(err)
	}

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		config.Module(),
		session.Module(),
	)
	app.Run()
}
