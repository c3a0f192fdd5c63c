package notify

import (
	"context"
	"fmt"
	"strings"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"intraday_bot/internal/broker"
	"intraday_bot/pkg/logger"
)

type Notifier interface {
	Send(msg string)
	Sendf(format string, args ...any)
}

// Telegram — пассивный нотифайер + обработка одной команды /positions.
// Бот торгует сам, подтверждений у человека не спрашивает.
type Telegram struct {
	bot    *tgbot.BotAPI
	chatID int64
	api    broker.API
}

func NewTelegram(token string, chatID int64, api broker.API) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Telegram{
		bot:    b,
		chatID: chatID,
		api:    api,
	}, nil
}

func (t *Telegram) Send(msg string) {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return
	}
	_, _ = t.bot.Send(tgbot.NewMessage(t.chatID, msg))
}

func (t *Telegram) Sendf(format string, args ...any) { t.Send(fmt.Sprintf(format, args...)) }

// /positions — вывод позиций как их видит брокер
func (t *Telegram) handlePositions(ctx context.Context) {
	positions, err := t.api.Positions(ctx)
	if err != nil {
		t.Sendf("❗️ Ошибка получения позиций: %v", err)
		return
	}

	var b strings.Builder
	n := 0
	b.WriteString("📊 Открытые позиции:\n")
	for _, p := range positions {
		if p.NetQty == 0 {
			continue
		}
		n++
		side := "LONG"
		if p.NetQty < 0 {
			side = "SHORT"
		}
		fmt.Fprintf(&b, "- %s [%s] qty=%d %s\n", p.Symbol, side, p.NetQty, p.Product)
	}
	if n == 0 {
		t.Send("📭 Открытых позиций нет")
		return
	}
	t.Send(b.String())
}

// Start: long-polling только ради команды /positions.
func (t *Telegram) Start(ctx context.Context) error {
	if t == nil || t.bot == nil {
		return nil
	}

	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	u.AllowedUpdates = []string{"message"}

	updates := t.bot.GetUpdatesChan(u)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case upd := <-updates:
				if upd.Message != nil && upd.Message.Chat != nil &&
					upd.Message.Chat.ID == t.chatID && upd.Message.IsCommand() {

					switch upd.Message.Command() {
					case "positions":
						go t.handlePositions(ctx)
					}
				}
			}
		}
	}()
	return nil
}

func (t *Telegram) Stop() {}

// Stdout — заглушка, просто пишет в лог.
type Stdout struct{}

func NewStdout() *Stdout                           { return &Stdout{} }
func (s *Stdout) Send(msg string)                  { logger.Info("%s", msg) }
func (s *Stdout) Sendf(format string, args ...any) { logger.Info(format, args...) }
