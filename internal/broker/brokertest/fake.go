// Package brokertest — in-memory реализация broker.SessionAPI для тестов.
package brokertest

import (
	"context"
	"strconv"
	"time"

	"intraday_bot/internal/broker"
	"intraday_bot/internal/models"
)

type ModifyCall struct {
	OrderID string
	Params  broker.ModifyParams
}

// Fake раздаёт заготовленные данные и записывает мутирующие вызовы.
// Ключ свечных серий — token+"/"+interval, окно запроса игнорируется.
type Fake struct {
	Series map[string][]models.Candle
	Quotes map[string]broker.Quote
	Pos    []models.Position
	Orders []models.PendingOrder
	Uni    []models.Instrument

	CandlesErr error
	QuoteErr   error
	PosErr     error
	OrdersErr  error
	LoginErr   error
	ModifyErr  error

	// PlaceErrByVariety позволяет валить только часть ордеров
	// (например стоп после успешного входа).
	PlaceErr          error
	PlaceErrByVariety map[string]error

	Placed     []broker.OrderParams
	Modified   []ModifyCall
	QuoteCalls []string // токены в порядке обращения

	nextOrderID int
}

func New() *Fake {
	return &Fake{
		Series: map[string][]models.Candle{},
		Quotes: map[string]broker.Quote{},
	}
}

func SeriesKey(token, interval string) string { return token + "/" + interval }

func (f *Fake) SetSeries(token, interval string, cs []models.Candle) {
	f.Series[SeriesKey(token, interval)] = cs
}

func (f *Fake) Candles(_ context.Context, _, token, interval string, _, _ time.Time) ([]models.Candle, error) {
	if f.CandlesErr != nil {
		return nil, f.CandlesErr
	}
	cs, ok := f.Series[SeriesKey(token, interval)]
	if !ok || len(cs) == 0 {
		return nil, broker.ErrNoData
	}
	return cs, nil
}

func (f *Fake) FullQuote(_ context.Context, _, token string) (broker.Quote, error) {
	f.QuoteCalls = append(f.QuoteCalls, token)
	if f.QuoteErr != nil {
		return broker.Quote{}, f.QuoteErr
	}
	q, ok := f.Quotes[token]
	if !ok {
		return broker.Quote{}, broker.ErrNoData
	}
	return q, nil
}

func (f *Fake) Positions(context.Context) ([]models.Position, error) {
	if f.PosErr != nil {
		return nil, f.PosErr
	}
	return f.Pos, nil
}

func (f *Fake) PendingOrders(context.Context) ([]models.PendingOrder, error) {
	if f.OrdersErr != nil {
		return nil, f.OrdersErr
	}
	return f.Orders, nil
}

func (f *Fake) PlaceOrder(_ context.Context, p broker.OrderParams) (string, error) {
	if err, ok := f.PlaceErrByVariety[p.Variety]; ok && err != nil {
		return "", err
	}
	if f.PlaceErr != nil {
		return "", f.PlaceErr
	}
	f.Placed = append(f.Placed, p)
	f.nextOrderID++
	return "ord-" + strconv.Itoa(f.nextOrderID), nil
}

func (f *Fake) ModifyOrder(_ context.Context, orderID string, p broker.ModifyParams) error {
	if f.ModifyErr != nil {
		return f.ModifyErr
	}
	f.Modified = append(f.Modified, ModifyCall{OrderID: orderID, Params: p})
	return nil
}

func (f *Fake) Login(context.Context) error {
	return f.LoginErr
}

func (f *Fake) Instruments(context.Context) ([]models.Instrument, error) {
	return f.Uni, nil
}

