// Package broker описывает поверхность брокера, которую потребляет движок.
// Конкретная реализация (SmartAPI) живёт в подпакете smartapi, тестовая — в
// brokertest. Движок везде принимает интерфейс, а не клиента.
package broker

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"intraday_bot/internal/models"
)

// ErrNoData — брокер ответил, но данных нет (пустые свечи, пустая котировка).
// Для движка это штатная ситуация "нет сделки в этом цикле", не авария.
var ErrNoData = errors.New("broker: no data")

const (
	ExchangeNSE = "NSE"
	ExchangeNFO = "NFO"

	IntervalFiveMinute = "FIVE_MINUTE"
	IntervalOneDay     = "ONE_DAY"

	SideBuy  = "BUY"
	SideSell = "SELL"

	VarietyNormal   = "NORMAL"
	VarietyStopLoss = "STOPLOSS"

	OrderTypeMarket        = "MARKET"
	OrderTypeStopLossLimit = "STOPLOSS_LIMIT"

	DurationDay = "DAY"

	// Статус отложенного стопа в книге ордеров.
	StatusTriggerPending = "trigger pending"
)

// Quote — срез полной котировки фьючерса. Нулевые поля значат
// "биржа не отдала": стратегии обязаны трактовать это как неподтверждение.
type Quote struct {
	LTP           float64
	PercentChange float64 // изменение LTP за день, %
	OI            float64 // текущий открытый интерес
	DayOpenOI     float64 // OI на открытии дня
	OIChange      float64 // изменение OI за день (контракты)
}

// OrderParams — параметры placeOrder один в один с брокером.
type OrderParams struct {
	Variety      string
	Symbol       string
	Token        string
	Exchange     string
	Side         string // BUY / SELL
	OrderType    string
	Product      string
	Duration     string
	Quantity     int64
	Price        float64 // 0 для MARKET
	TriggerPrice float64 // только для стопов
}

// ModifyParams — то, что брокер требует в modifyOrder помимо orderid.
type ModifyParams struct {
	Variety      string
	Symbol       string
	Token        string
	Exchange     string
	OrderType    string
	Product      string
	Duration     string
	Quantity     int64
	Price        float64
	TriggerPrice float64
}

// API — данные и ордера. Все вызовы блокирующие, один цикл — один поток.
type API interface {
	Candles(ctx context.Context, exchange, token, interval string, from, to time.Time) ([]models.Candle, error)
	FullQuote(ctx context.Context, exchange, token string) (Quote, error)
	Positions(ctx context.Context) ([]models.Position, error)
	PendingOrders(ctx context.Context) ([]models.PendingOrder, error)
	PlaceOrder(ctx context.Context, p OrderParams) (orderID string, err error)
	ModifyOrder(ctx context.Context, orderID string, p ModifyParams) error
}

// SessionAPI — то же плюс бутстрап процесса: логин и скрип-мастер.
// Ошибка Login фатальна — без сессии ни одно действие не безопасно.
type SessionAPI interface {
	API
	Login(ctx context.Context) error
	Instruments(ctx context.Context) ([]models.Instrument, error)
}
