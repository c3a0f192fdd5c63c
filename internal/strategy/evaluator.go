// Package strategy — классификация тренда, подтверждение по OI и
// оценка пробойного входа по каждой бумаге вселенной.
package strategy

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"intraday_bot/internal/broker"
	"intraday_bot/internal/indicator"
	"intraday_bot/internal/models"
	"intraday_bot/internal/modules/config"
	"intraday_bot/pkg/logger"
)

type Evaluator struct {
	api   broker.API
	cfg   *config.Config
	blast Blast

	now func() time.Time // подменяется в тестах
}

func NewEvaluator(api broker.API, cfg *config.Config, blast Blast) *Evaluator {
	return &Evaluator{
		api:   api,
		cfg:   cfg,
		blast: blast,
		now:   time.Now,
	}
}

// Trend классифицирует рынок по бенчмарку: close против vwap.
// Недоступные метрики => NEUTRAL, а NEUTRAL глушит все входы цикла.
func (e *Evaluator) Trend(ctx context.Context) models.Trend {
	m, err := e.IntradayMetrics(ctx, e.cfg.BenchmarkToken)
	if err != nil {
		logger.Warn("[TREND] бенчмарк недоступен, считаем NEUTRAL: %v", err)
		return models.TrendNeutral
	}
	switch {
	case m.Close > m.VWAP:
		return models.TrendBullish
	case m.Close < m.VWAP:
		return models.TrendBearish
	default:
		return models.TrendNeutral
	}
}

// IntradayMetrics — свежие метрики по 5-минуткам за окно лукбэка.
func (e *Evaluator) IntradayMetrics(ctx context.Context, token string) (models.Metrics, error) {
	to := e.now()
	from := to.Add(-e.cfg.IntradayLookback)
	cs, err := e.api.Candles(ctx, broker.ExchangeNSE, token, broker.IntervalFiveMinute, from, to)
	if err != nil {
		return models.Metrics{}, err
	}
	return indicator.Compute(cs)
}

// yesterdayLevels — high/low вчерашней дневной свечи (предпоследняя строка
// короткой дневной истории). Меньше двух баров — оценка бумаги пропускается.
func (e *Evaluator) yesterdayLevels(ctx context.Context, token string) (hi, lo float64, err error) {
	to := e.now()
	from := to.AddDate(0, 0, -e.cfg.DailyLookbackDays)
	cs, err := e.api.Candles(ctx, broker.ExchangeNSE, token, broker.IntervalOneDay, from, to)
	if err != nil {
		return 0, 0, err
	}
	if len(cs) < 2 {
		return 0, 0, errors.Wrap(broker.ErrNoData, "insufficient daily history")
	}
	y := cs[len(cs)-2]
	return y.High, y.Low, nil
}

// Scan идёт по вселенной в её порядке и возвращает первый подтверждённый
// сигнал (одна сделка за цикл). Любой сбой по бумаге — пропуск бумаги.
func (e *Evaluator) Scan(ctx context.Context, uni []models.Instrument, trend models.Trend) *models.Signal {
	if trend == models.TrendNeutral {
		return nil
	}

	for _, inst := range uni {
		hi, lo, err := e.yesterdayLevels(ctx, inst.EqToken)
		if err != nil {
			continue
		}
		m, err := e.IntradayMetrics(ctx, inst.EqToken)
		if err != nil {
			continue
		}

		ok, err := e.blast.Confirmed(ctx, inst.FutToken)
		if err != nil {
			logger.Warn("[BLAST] %s: %v", inst.Name, err)
			continue
		}
		if !ok {
			continue
		}

		if trend == models.TrendBullish && m.Close > hi && m.Close > m.VWAP {
			logger.Info("[SIGNAL] 🔥 %s LONG close=%.2f > y.high=%.2f, vwap=%.2f (%s)",
				inst.Name, m.Close, hi, m.VWAP, e.blast.Name())
			return &models.Signal{Instrument: inst, Side: models.SideLong, Price: m.Close, ATR: m.ATR}
		}
		if trend == models.TrendBearish && m.Close < lo && m.Close < m.VWAP {
			logger.Info("[SIGNAL] 🔥 %s SHORT close=%.2f < y.low=%.2f, vwap=%.2f (%s)",
				inst.Name, m.Close, lo, m.VWAP, e.blast.Name())
			return &models.Signal{Instrument: inst, Side: models.SideShort, Price: m.Close, ATR: m.ATR}
		}
	}
	return nil
}
