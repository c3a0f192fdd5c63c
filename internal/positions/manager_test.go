package positions

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intraday_bot/internal/broker"
	"intraday_bot/internal/broker/brokertest"
	"intraday_bot/internal/helper"
	"intraday_bot/internal/models"
	"intraday_bot/internal/modules/config"
	"intraday_bot/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.SetServiceName("positions-test")
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type memoNotifier struct{ msgs []string }

func (n *memoNotifier) Send(msg string) { n.msgs = append(n.msgs, msg) }
func (n *memoNotifier) Sendf(format string, args ...any) {
	n.Send(fmt.Sprintf(format, args...))
}

func managerCfg() *config.Config {
	return &config.Config{
		TrailBufferPct:   0.05,
		TickSize:         0.05,
		IntradayLookback: 4 * time.Hour,
	}
}

func newTestManager(f *brokertest.Fake) (*Manager, *memoNotifier) {
	n := &memoNotifier{}
	m := NewManager(f, managerCfg(), n)
	m.now = func() time.Time {
		return time.Date(2026, 8, 31, 13, 0, 0, 0, helper.IST)
	}
	return m, n
}

func flatCandle(close float64) models.Candle {
	return models.Candle{Open: close, High: close, Low: close, Close: close, Volume: 100}
}

func longPos() models.Position {
	return models.Position{Symbol: "AAA-EQ", Token: "1001", NetQty: 10, Product: models.ProductIntraday}
}

func stopFor(p models.Position, side string, trigger float64) models.PendingOrder {
	return models.PendingOrder{
		OrderID:      "sl-1",
		Symbol:       p.Symbol,
		Side:         side,
		Status:       broker.StatusTriggerPending,
		Price:        trigger,
		TriggerPrice: trigger,
		Quantity:     10,
	}
}

func TestCountOpenIntraday(t *testing.T) {
	fake := brokertest.New()
	fake.Pos = []models.Position{
		{Symbol: "A", NetQty: 10, Product: models.ProductIntraday},
		{Symbol: "B", NetQty: -5, Product: models.ProductIntraday},
		{Symbol: "C", NetQty: 0, Product: models.ProductIntraday}, // закрыта
		{Symbol: "D", NetQty: 100, Product: models.ProductCarry},  // не интрадей
	}
	m, _ := newTestManager(fake)

	n, err := m.CountOpenIntraday(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCountOpenIntradayPropagatesError(t *testing.T) {
	fake := brokertest.New()
	fake.PosErr = errors.New("boom")
	m, _ := newTestManager(fake)

	_, err := m.CountOpenIntraday(context.Background())
	assert.Error(t, err)
}

func TestTrailStopsTightensLong(t *testing.T) {
	fake := brokertest.New()
	p := longPos()
	fake.Pos = []models.Position{p}
	fake.Orders = []models.PendingOrder{stopFor(p, broker.SideSell, 100.0)}
	// EMA10 по одной свече = 100.3, кандидат 100.3*0.9995 = 100.2498 -> тик 100.25
	fake.SetSeries(p.Token, broker.IntervalFiveMinute, []models.Candle{flatCandle(100.3)})
	m, n := newTestManager(fake)

	m.TrailStops(context.Background())

	require.Len(t, fake.Modified, 1)
	assert.Equal(t, "sl-1", fake.Modified[0].OrderID)
	assert.InDelta(t, 100.25, fake.Modified[0].Params.TriggerPrice, 1e-9)
	assert.InDelta(t, 100.25, fake.Modified[0].Params.Price, 1e-9)
	assert.Len(t, n.msgs, 1)
}

func TestTrailStopsNeverLoosens(t *testing.T) {
	fake := brokertest.New()
	p := longPos()
	fake.Pos = []models.Position{p}
	fake.Orders = []models.PendingOrder{stopFor(p, broker.SideSell, 100.0)}
	// кандидат 99.55*0.9995 ~= 99.50 — ниже текущего триггера, не двигаем
	fake.SetSeries(p.Token, broker.IntervalFiveMinute, []models.Candle{flatCandle(99.55)})
	m, _ := newTestManager(fake)

	m.TrailStops(context.Background())

	assert.Empty(t, fake.Modified)
}

func TestTrailStopsTightensShort(t *testing.T) {
	fake := brokertest.New()
	p := models.Position{Symbol: "BBB-EQ", Token: "1002", NetQty: -10, Product: models.ProductIntraday}
	fake.Pos = []models.Position{p}
	fake.Orders = []models.PendingOrder{stopFor(p, broker.SideBuy, 105.0)}
	// шорт: кандидат 100*1.0005 = 100.05, ниже 105 — ужесточение
	fake.SetSeries(p.Token, broker.IntervalFiveMinute, []models.Candle{flatCandle(100)})
	m, _ := newTestManager(fake)

	m.TrailStops(context.Background())

	require.Len(t, fake.Modified, 1)
	assert.InDelta(t, 100.05, fake.Modified[0].Params.TriggerPrice, 1e-9)
}

func TestTrailStopsNoStopNoTouch(t *testing.T) {
	fake := brokertest.New()
	p := longPos()
	fake.Pos = []models.Position{p}
	// в книге только чужой ордер
	fake.Orders = []models.PendingOrder{{OrderID: "x", Symbol: "OTHER-EQ", Side: broker.SideSell, Status: broker.StatusTriggerPending}}
	fake.SetSeries(p.Token, broker.IntervalFiveMinute, []models.Candle{flatCandle(200)})
	m, _ := newTestManager(fake)

	m.TrailStops(context.Background())

	assert.Empty(t, fake.Modified)
	assert.Empty(t, fake.Placed) // аварийный стоп не синтезируем
}

func TestTrailStopsSkipsPassOnPositionsError(t *testing.T) {
	fake := brokertest.New()
	fake.PosErr = errors.New("timeout")
	m, _ := newTestManager(fake)

	m.TrailStops(context.Background())

	assert.Empty(t, fake.Modified)
}

func TestForceExitClosesIntradayOnly(t *testing.T) {
	fake := brokertest.New()
	fake.Pos = []models.Position{
		{Symbol: "AAA-EQ", Token: "1001", NetQty: 10, Product: models.ProductIntraday},
		{Symbol: "BBB-EQ", Token: "1002", NetQty: -5, Product: models.ProductIntraday},
		{Symbol: "CCC-EQ", Token: "1003", NetQty: 100, Product: models.ProductCarry},
	}
	m, n := newTestManager(fake)

	m.ForceExit(context.Background())

	require.Len(t, fake.Placed, 2)

	assert.Equal(t, broker.SideSell, fake.Placed[0].Side)
	assert.Equal(t, int64(10), fake.Placed[0].Quantity)
	assert.Equal(t, broker.OrderTypeMarket, fake.Placed[0].OrderType)

	assert.Equal(t, broker.SideBuy, fake.Placed[1].Side)
	assert.Equal(t, int64(5), fake.Placed[1].Quantity)

	assert.Len(t, n.msgs, 2)
}

func TestForceExitContinuesAfterOrderError(t *testing.T) {
	fake := brokertest.New()
	fake.Pos = []models.Position{
		{Symbol: "AAA-EQ", Token: "1001", NetQty: 10, Product: models.ProductIntraday},
		{Symbol: "BBB-EQ", Token: "1002", NetQty: 5, Product: models.ProductIntraday},
	}
	fake.PlaceErr = errors.New("rejected")
	m, n := newTestManager(fake)

	m.ForceExit(context.Background())

	// обе позиции попытались закрыть, оба отказа ушли в уведомления
	assert.Len(t, n.msgs, 2)
	for _, msg := range n.msgs {
		assert.Contains(t, msg, "не прошло")
	}
}
