// Package executor превращает подтверждённый сигнал в пару ордеров:
// рыночный вход и защитный стоп.
package executor

import (
	"context"
	"math"

	"github.com/pkg/errors"

	"intraday_bot/internal/broker"
	"intraday_bot/internal/helper"
	"intraday_bot/internal/models"
	"intraday_bot/internal/modules/config"
	"intraday_bot/internal/notify"
	"intraday_bot/pkg/logger"
)

type Executor struct {
	api broker.API
	cfg *config.Config
	n   notify.Notifier
}

func New(api broker.API, cfg *config.Config, n notify.Notifier) *Executor {
	return &Executor{api: api, cfg: cfg, n: n}
}

// Enter: qty = floor(капитал * плечо / цена); qty < 1 — молча пропускаем,
// капитала на эту бумагу не хватает. Вход и стоп выставляются
// последовательно и не транзакционно: упавший стоп после успешного входа
// оставляет позицию без защиты до трейлинг/форс-прохода. Это осознанное
// окно риска, мы его репортим, но не чиним на месте.
func (x *Executor) Enter(ctx context.Context, sig models.Signal) error {
	qty := int64(math.Floor(x.cfg.CapitalPerTrade * x.cfg.Leverage / sig.Price))
	if qty < 1 {
		logger.Info("[ORDER] %s: капитала не хватает при цене %.2f, пропуск", sig.Instrument.Name, sig.Price)
		return nil
	}

	entrySide := broker.SideBuy
	stopSide := broker.SideSell
	if sig.Side == models.SideShort {
		entrySide = broker.SideSell
		stopSide = broker.SideBuy
	}

	orderID, err := x.api.PlaceOrder(ctx, broker.OrderParams{
		Variety:   broker.VarietyNormal,
		Symbol:    sig.Instrument.EqSymbol,
		Token:     sig.Instrument.EqToken,
		Exchange:  broker.ExchangeNSE,
		Side:      entrySide,
		OrderType: broker.OrderTypeMarket,
		Product:   models.ProductIntraday,
		Duration:  broker.DurationDay,
		Quantity:  qty,
	})
	if err != nil {
		x.n.Sendf("❗️ [%s] Вход %s не прошёл: %v", sig.Instrument.Name, sig.Side, err)
		return errors.Wrap(err, "entry order")
	}
	x.n.Sendf("🚀 [%s] %s qty=%d @ %.2f | ATR=%.2f (orderId=%s)",
		sig.Instrument.Name, sig.Side, qty, sig.Price, sig.ATR, orderID)

	dist := sig.ATR * x.cfg.ATRMultiplier
	sl := sig.Price - dist
	if sig.Side == models.SideShort {
		sl = sig.Price + dist
	}
	sl = helper.RoundToTick(sl, x.cfg.TickSize)

	_, err = x.api.PlaceOrder(ctx, broker.OrderParams{
		Variety:      broker.VarietyStopLoss,
		Symbol:       sig.Instrument.EqSymbol,
		Token:        sig.Instrument.EqToken,
		Exchange:     broker.ExchangeNSE,
		Side:         stopSide,
		OrderType:    broker.OrderTypeStopLossLimit,
		Product:      models.ProductIntraday,
		Duration:     broker.DurationDay,
		Quantity:     qty,
		Price:        sl,
		TriggerPrice: sl,
	})
	if err != nil {
		// позиция осталась без стопа — подберут трейлинг и форс-выход
		logger.Error("[ORDER] %s: SL не выставлен: %v", sig.Instrument.Name, err)
		x.n.Sendf("⚠️ [%s] Позиция открыта, но SL не выставлен: %v", sig.Instrument.Name, err)
		return nil
	}
	x.n.Sendf("🛡 [%s] SL выставлен: %.2f", sig.Instrument.Name, sl)

	return nil
}
