package strategy

import (
	"context"
	"math"

	"github.com/pkg/errors"

	"intraday_bot/internal/broker"
	"intraday_bot/internal/modules/config"
)

// Blast — подтверждение "выноса" по активности во фьючерсе.
// false без ошибки — штатное "не подтверждено": нулевые знаменатели,
// отсутствующие поля котировки и пустые данные никогда не ошибки.
// Порог строгий: ровно на пороге — не подтверждено.
type Blast interface {
	Name() string
	Confirmed(ctx context.Context, futToken string) (bool, error)
}

// NewBlast выбирает реализацию по конфигу, дефолт — day_open_oi.
func NewBlast(cfg *config.Config, api broker.API) Blast {
	switch cfg.BlastStrategy {
	case "derived_delta_oi":
		return &derivedDeltaOI{api: api, thresholdPct: cfg.OIThresholdPct}
	case "momentum":
		return &momentum{api: api, thresholdPct: cfg.MomentumPct}
	case "day_open_oi", "":
		fallthrough
	default:
		return &dayOpenOI{api: api, thresholdPct: cfg.OIThresholdPct}
	}
}

// dayOpenOI сравнивает текущий OI с OI на открытии дня.
type dayOpenOI struct {
	api          broker.API
	thresholdPct float64
}

func (b *dayOpenOI) Name() string { return "day_open_oi" }

func (b *dayOpenOI) Confirmed(ctx context.Context, futToken string) (bool, error) {
	q, err := b.api.FullQuote(ctx, broker.ExchangeNFO, futToken)
	if err != nil {
		if errors.Is(err, broker.ErrNoData) {
			return false, nil
		}
		return false, err
	}
	if q.DayOpenOI == 0 {
		return false, nil
	}
	pct := (q.OI - q.DayOpenOI) / q.DayOpenOI * 100
	return math.Abs(pct) > b.thresholdPct, nil
}

// derivedDeltaOI восстанавливает вчерашний OI как текущий минус дневную
// дельту и меряет дельту против него.
type derivedDeltaOI struct {
	api          broker.API
	thresholdPct float64
}

func (b *derivedDeltaOI) Name() string { return "derived_delta_oi" }

func (b *derivedDeltaOI) Confirmed(ctx context.Context, futToken string) (bool, error) {
	q, err := b.api.FullQuote(ctx, broker.ExchangeNFO, futToken)
	if err != nil {
		if errors.Is(err, broker.ErrNoData) {
			return false, nil
		}
		return false, err
	}
	yesterday := q.OI - q.OIChange
	if yesterday == 0 {
		return false, nil
	}
	pct := q.OIChange / yesterday * 100
	return math.Abs(pct) > b.thresholdPct, nil
}

// momentum — фоллбэк, когда OI непригоден: смотрим дневное изменение LTP.
type momentum struct {
	api          broker.API
	thresholdPct float64
}

func (b *momentum) Name() string { return "momentum" }

func (b *momentum) Confirmed(ctx context.Context, futToken string) (bool, error) {
	q, err := b.api.FullQuote(ctx, broker.ExchangeNFO, futToken)
	if err != nil {
		if errors.Is(err, broker.ErrNoData) {
			return false, nil
		}
		return false, err
	}
	return math.Abs(q.PercentChange) > b.thresholdPct, nil
}
