package models

import "time"

// Candle — свеча одного инструмента в одном таймфрейме.
// Серия всегда упорядочена от старых к новым и живёт один цикл.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Metrics — метрики по последней свече окна. Не кэшируются между циклами.
// VWAP считается по всему загруженному окну (несколько часов), а не от
// открытия сессии: при сдвиге окна значения между циклами не сравнимы.
type Metrics struct {
	Close float64
	VWAP  float64
	EMA10 float64
	ATR   float64
}
