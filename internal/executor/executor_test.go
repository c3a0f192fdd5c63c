package executor

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intraday_bot/internal/broker"
	"intraday_bot/internal/broker/brokertest"
	"intraday_bot/internal/models"
	"intraday_bot/internal/modules/config"
	"intraday_bot/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.SetServiceName("executor-test")
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

func executorCfg() *config.Config {
	return &config.Config{
		CapitalPerTrade: 5000,
		Leverage:        5,
		ATRMultiplier:   2,
		TickSize:        0.05,
	}
}

func longSignal(price, atr float64) models.Signal {
	return models.Signal{
		Instrument: models.Instrument{Name: "AAA", EqToken: "1001", EqSymbol: "AAA-EQ"},
		Side:       models.SideLong,
		Price:      price,
		ATR:        atr,
	}
}

func TestEnterLong(t *testing.T) {
	fake := brokertest.New()
	n := &memoNotifier{}
	x := New(fake, executorCfg(), n)

	// 5000 * 5 / 2500 = 10
	err := x.Enter(context.Background(), longSignal(2500, 12.3))
	require.NoError(t, err)
	require.Len(t, fake.Placed, 2)

	entry := fake.Placed[0]
	assert.Equal(t, broker.VarietyNormal, entry.Variety)
	assert.Equal(t, broker.SideBuy, entry.Side)
	assert.Equal(t, broker.OrderTypeMarket, entry.OrderType)
	assert.Equal(t, models.ProductIntraday, entry.Product)
	assert.Equal(t, int64(10), entry.Quantity)

	sl := fake.Placed[1]
	assert.Equal(t, broker.VarietyStopLoss, sl.Variety)
	assert.Equal(t, broker.SideSell, sl.Side)
	assert.Equal(t, broker.OrderTypeStopLossLimit, sl.OrderType)
	assert.Equal(t, int64(10), sl.Quantity)
	// 2500 - 12.3*2 = 2475.4
	assert.InDelta(t, 2475.40, sl.TriggerPrice, 1e-9)
	assert.InDelta(t, 2475.40, sl.Price, 1e-9)
}

func TestEnterShortStopAbove(t *testing.T) {
	fake := brokertest.New()
	x := New(fake, executorCfg(), &memoNotifier{})

	sig := longSignal(100, 1.03)
	sig.Side = models.SideShort

	require.NoError(t, x.Enter(context.Background(), sig))
	require.Len(t, fake.Placed, 2)

	assert.Equal(t, broker.SideSell, fake.Placed[0].Side)
	assert.Equal(t, broker.SideBuy, fake.Placed[1].Side)
	// 100 + 1.03*2 = 102.06 -> тик 0.05 -> 102.05
	assert.InDelta(t, 102.05, fake.Placed[1].TriggerPrice, 1e-9)
}

func TestEnterInsufficientCapital(t *testing.T) {
	fake := brokertest.New()
	x := New(fake, executorCfg(), &memoNotifier{})

	// 25000 / 30000 < 1 — молча пропускаем
	err := x.Enter(context.Background(), longSignal(30000, 100))
	require.NoError(t, err)
	assert.Empty(t, fake.Placed)
}

func TestEnterEntryFailure(t *testing.T) {
	fake := brokertest.New()
	fake.PlaceErrByVariety = map[string]error{broker.VarietyNormal: errors.New("rejected")}
	n := &memoNotifier{}
	x := New(fake, executorCfg(), n)

	err := x.Enter(context.Background(), longSignal(2500, 10))
	assert.Error(t, err)
	assert.Empty(t, fake.Placed) // стоп не выставлялся
	require.Len(t, n.msgs, 1)
	assert.Contains(t, n.msgs[0], "не прошёл")
}

func TestEnterStopFailureKeepsPosition(t *testing.T) {
	fake := brokertest.New()
	fake.PlaceErrByVariety = map[string]error{broker.VarietyStopLoss: errors.New("rejected")}
	n := &memoNotifier{}
	x := New(fake, executorCfg(), n)

	// вход прошёл, стоп упал — это не ошибка Enter, позицию не закрываем
	err := x.Enter(context.Background(), longSignal(2500, 10))
	require.NoError(t, err)
	require.Len(t, fake.Placed, 1)
	assert.Equal(t, broker.VarietyNormal, fake.Placed[0].Variety)

	require.Len(t, n.msgs, 2)
	assert.Contains(t, n.msgs[1], "SL не выставлен")
}
