package models

// Side — направление входа.
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// Trend — классификация рынка по бенчмарку (индексу).
type Trend string

const (
	TrendBullish Trend = "BULLISH"
	TrendBearish Trend = "BEARISH"
	TrendNeutral Trend = "NEUTRAL"
)

// Signal — подтверждённый сигнал на вход. Живёт один цикл:
// исполнитель либо отрабатывает его сразу, либо он пропадает.
type Signal struct {
	Instrument Instrument
	Side       Side
	Price      float64 // цена последней свечи на момент сигнала
	ATR        float64 // ATR на момент сигнала, для дистанции стопа
}
