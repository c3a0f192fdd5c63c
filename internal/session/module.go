package session

import (
	"context"

	"go.uber.org/fx"

	"intraday_bot/internal/broker"
	"intraday_bot/internal/broker/smartapi"
	"intraday_bot/internal/modules/config"
	"intraday_bot/internal/notify"
	"intraday_bot/pkg/logger"
)

func Module() fx.Option {
	return fx.Module("session",
		fx.Provide(
			func(cfg *config.Config) broker.SessionAPI {
				return smartapi.NewClient(cfg)
			},
			// Notifier: если TELEGRAM_* нет — используем stdout
			func(cfg *config.Config, api broker.SessionAPI) notify.Notifier {
				if cfg.Telegram.Token != "" && cfg.Telegram.ChatID != 0 {
					if tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, api); err == nil {
						return tg
					}
				}
				return notify.NewStdout()
			},
			NewScheduler,
		),
		fx.Invoke(func(
			lc fx.Lifecycle,
			s *Scheduler,
			n notify.Notifier,
			ctx context.Context,
		) {
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					if tg, ok := n.(*notify.Telegram); ok {
						if err := tg.Start(ctx); err != nil {
							return err
						}
					}
					go func() {
						// бутстрап в горутине: скрип-мастер качается дольше,
						// чем fx-таймаут на OnStart
						if err := s.Bootstrap(ctx); err != nil {
							logger.Fatal("bootstrap: %v", err)
						}
						s.Run(ctx)
					}()
					return nil
				},
				OnStop: func(context.Context) error {
					if tg, ok := n.(*notify.Telegram); ok {
						tg.Stop()
					}
					return nil
				},
			})
		}),
	)
}
