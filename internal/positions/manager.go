// Package positions — сверка позиций с брокером, подтяжка трейлинг-стопов
// и принудительное закрытие интрадея перед концом сессии.
package positions

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"intraday_bot/internal/broker"
	"intraday_bot/internal/helper"
	"intraday_bot/internal/indicator"
	"intraday_bot/internal/models"
	"intraday_bot/internal/modules/config"
	"intraday_bot/internal/notify"
	"intraday_bot/pkg/logger"
)

type Manager struct {
	api broker.API
	cfg *config.Config
	n   notify.Notifier

	now func() time.Time // подменяется в тестах
}

func NewManager(api broker.API, cfg *config.Config, n notify.Notifier) *Manager {
	return &Manager{
		api: api,
		cfg: cfg,
		n:   n,
		now: time.Now,
	}
}

// CountOpenIntraday перечитывает позиции и считает открытый интрадей.
// Ошибку чтения возвращает наверх: политику fail-open применяет шедулер,
// а не этот слой.
func (m *Manager) CountOpenIntraday(ctx context.Context) (int, error) {
	ps, err := m.api.Positions(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "read positions")
	}
	count := 0
	for _, p := range ps {
		if p.OpenIntraday() {
			count++
		}
	}
	return count, nil
}

// TrailStops подтягивает стопы открытых интрадей-позиций к EMA10.
// Стоп двигается только в сторону ужесточения; позиция без найденного
// стопа не трогается — аварийный стоп не синтезируем.
func (m *Manager) TrailStops(ctx context.Context) {
	ps, err := m.api.Positions(ctx)
	if err != nil {
		logger.Warn("[TRAIL] позиции не прочитались, пропускаем проход: %v", err)
		return
	}

	var orders []models.PendingOrder
	ordersLoaded := false

	for _, p := range ps {
		if !p.OpenIntraday() {
			continue
		}

		if !ordersLoaded {
			orders, err = m.api.PendingOrders(ctx)
			if err != nil {
				logger.Warn("[TRAIL] книга ордеров не прочиталась, пропускаем проход: %v", err)
				return
			}
			ordersLoaded = true
		}

		sl := findStop(orders, p)
		if sl == nil {
			continue
		}

		mt, err := m.intradayMetrics(ctx, p.Token)
		if err != nil {
			continue
		}

		buf := m.cfg.TrailBufferPct / 100
		var cand float64
		if p.NetQty > 0 {
			cand = mt.EMA10 * (1 - buf)
		} else {
			cand = mt.EMA10 * (1 + buf)
		}
		cand = helper.RoundToTick(cand, m.cfg.TickSize)

		// только ужесточение: вверх для лонга, вниз для шорта
		tightens := cand > sl.TriggerPrice
		if p.NetQty < 0 {
			tightens = cand < sl.TriggerPrice
		}
		if !tightens {
			continue
		}

		err = m.api.ModifyOrder(ctx, sl.OrderID, broker.ModifyParams{
			Variety:      broker.VarietyStopLoss,
			Symbol:       p.Symbol,
			Token:        p.Token,
			Exchange:     broker.ExchangeNSE,
			OrderType:    broker.OrderTypeStopLossLimit,
			Product:      models.ProductIntraday,
			Duration:     broker.DurationDay,
			Quantity:     sl.Quantity,
			Price:        cand,
			TriggerPrice: cand,
		})
		if err != nil {
			logger.Error("[TRAIL] %s: modify не прошёл: %v", p.Symbol, err)
			continue
		}
		m.n.Sendf("🛡 [%s] SL подтянут %.2f -> %.2f", p.Symbol, sl.TriggerPrice, cand)
	}
}

// ForceExit закрывает рынком весь открытый интрадей. CARRY и прочие
// producttype не трогаются никогда, при любых qty и сторонах.
func (m *Manager) ForceExit(ctx context.Context) {
	ps, err := m.api.Positions(ctx)
	if err != nil {
		logger.Error("[EXIT] позиции не прочитались: %v", err)
		return
	}

	for _, p := range ps {
		if !p.OpenIntraday() {
			continue
		}

		side := broker.SideSell
		qty := p.NetQty
		if qty < 0 {
			side = broker.SideBuy
			qty = -qty
		}

		_, err := m.api.PlaceOrder(ctx, broker.OrderParams{
			Variety:   broker.VarietyNormal,
			Symbol:    p.Symbol,
			Token:     p.Token,
			Exchange:  broker.ExchangeNSE,
			Side:      side,
			OrderType: broker.OrderTypeMarket,
			Product:   models.ProductIntraday,
			Duration:  broker.DurationDay,
			Quantity:  qty,
		})
		if err != nil {
			logger.Error("[EXIT] %s: закрытие не прошло: %v", p.Symbol, err)
			m.n.Sendf("❗️ [%s] Принудительное закрытие не прошло: %v", p.Symbol, err)
			continue
		}
		m.n.Sendf("🚨 [%s] Принудительное закрытие, qty=%d", p.Symbol, qty)
	}
}

func (m *Manager) intradayMetrics(ctx context.Context, token string) (models.Metrics, error) {
	to := m.now()
	from := to.Add(-m.cfg.IntradayLookback)
	cs, err := m.api.Candles(ctx, broker.ExchangeNSE, token, broker.IntervalFiveMinute, from, to)
	if err != nil {
		return models.Metrics{}, err
	}
	return indicator.Compute(cs)
}

// findStop ищет отложенный защитный стоп позиции: тот же символ,
// противоположная сторона, статус trigger pending.
func findStop(orders []models.PendingOrder, p models.Position) *models.PendingOrder {
	want := broker.SideSell
	if p.NetQty < 0 {
		want = broker.SideBuy
	}
	for i := range orders {
		o := &orders[i]
		if o.Symbol == p.Symbol && o.Side == want && strings.EqualFold(o.Status, broker.StatusTriggerPending) {
			return o
		}
	}
	return nil
}
