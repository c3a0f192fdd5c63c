// Package indicator — точечные метрики по окну свечей: VWAP, EMA(10), ATR(14).
// Всё считается заново каждый цикл по свежему окну, состояния у пакета нет.
package indicator

import (
	"math"

	"github.com/pkg/errors"

	"intraday_bot/internal/models"
)

const (
	emaSpan   = 10
	atrPeriod = 14
)

// ErrNoCandles — окно пустое либо непригодное. Для вызывающего это
// "метрик нет, сделки по бумаге в этом цикле нет", не авария.
var ErrNoCandles = errors.New("indicator: no candles")

// Compute считает метрики по последней свече окна (oldest -> newest).
//
// VWAP — кумулятивный по всему переданному окну: это НЕ vwap от открытия
// сессии, при сдвиге окна значения между циклами не сравнимы.
// EMA(10) сидируется первой ценой закрытия, без поправки на разогрев.
// ATR(14) — простое среднее true range по последним 14 барам; если баров
// меньше, подставляется (high-low) последней свечи.
func Compute(cs []models.Candle) (models.Metrics, error) {
	if len(cs) == 0 {
		return models.Metrics{}, ErrNoCandles
	}

	alpha := 2.0 / (float64(emaSpan) + 1)

	var cumPV, cumVol, ema float64
	trs := make([]float64, 0, len(cs))

	for i, c := range cs {
		cumPV += c.Close * c.Volume
		cumVol += c.Volume

		if i == 0 {
			ema = c.Close
		} else {
			ema = alpha*c.Close + (1-alpha)*ema
		}

		// true range: на первом баре не определён (нет prev close)
		if i > 0 {
			prev := cs[i-1].Close
			tr := math.Max(c.High-c.Low, math.Max(math.Abs(c.High-prev), math.Abs(c.Low-prev)))
			trs = append(trs, tr)
		}
	}

	if cumVol == 0 {
		return models.Metrics{}, errors.Wrap(ErrNoCandles, "zero cumulative volume")
	}

	last := cs[len(cs)-1]

	atr := last.High - last.Low
	if len(trs) >= atrPeriod {
		var sum float64
		for _, tr := range trs[len(trs)-atrPeriod:] {
			sum += tr
		}
		atr = sum / float64(atrPeriod)
	}

	return models.Metrics{
		Close: last.Close,
		VWAP:  cumPV / cumVol,
		EMA10: ema,
		ATR:   atr,
	}, nil
}
