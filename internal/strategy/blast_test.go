package strategy

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intraday_bot/internal/broker"
	"intraday_bot/internal/broker/brokertest"
	"intraday_bot/internal/modules/config"
	"intraday_bot/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.SetServiceName("strategy-test")
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func TestDayOpenOIBlastStrictThreshold(t *testing.T) {
	for _, tc := range []struct {
		name string
		oi   float64
		want bool
	}{
		{"exactly at threshold", 103.0, false}, // ровно 3.0% — не подтверждено
		{"just above", 103.01, true},
		{"below", 102.9, false},
		{"negative blast above", 96.9, true}, // -3.1%
	} {
		t.Run(tc.name, func(t *testing.T) {
			fake := brokertest.New()
			fake.Quotes["F1"] = broker.Quote{OI: tc.oi, DayOpenOI: 100}

			b := &dayOpenOI{api: fake, thresholdPct: 3.0}
			ok, err := b.Confirmed(context.Background(), "F1")
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
		})
	}
}

func TestDayOpenOIBlastZeroDenominator(t *testing.T) {
	fake := brokertest.New()
	fake.Quotes["F1"] = broker.Quote{OI: 500, DayOpenOI: 0}

	b := &dayOpenOI{api: fake, thresholdPct: 3.0}
	ok, err := b.Confirmed(context.Background(), "F1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDayOpenOIBlastNoQuote(t *testing.T) {
	// котировки нет вовсе — это "не подтверждено", не ошибка
	b := &dayOpenOI{api: brokertest.New(), thresholdPct: 3.0}
	ok, err := b.Confirmed(context.Background(), "F1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDerivedDeltaOIBlast(t *testing.T) {
	fake := brokertest.New()
	// вчера = 103.5 - 3.5 = 100, дельта 3.5% > 3.0%
	fake.Quotes["F1"] = broker.Quote{OI: 103.5, OIChange: 3.5}

	b := &derivedDeltaOI{api: fake, thresholdPct: 3.0}
	ok, err := b.Confirmed(context.Background(), "F1")
	require.NoError(t, err)
	assert.True(t, ok)

	// вчера восстановился в ноль — не подтверждено
	fake.Quotes["F1"] = broker.Quote{OI: 5, OIChange: 5}
	ok, err = b.Confirmed(context.Background(), "F1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMomentumBlast(t *testing.T) {
	fake := brokertest.New()
	b := &momentum{api: fake, thresholdPct: 2.0}

	fake.Quotes["F1"] = broker.Quote{PercentChange: 2.0}
	ok, err := b.Confirmed(context.Background(), "F1")
	require.NoError(t, err)
	assert.False(t, ok) // порог строгий

	fake.Quotes["F1"] = broker.Quote{PercentChange: -2.5}
	ok, err = b.Confirmed(context.Background(), "F1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewBlastFactory(t *testing.T) {
	fake := brokertest.New()
	for name, want := range map[string]string{
		"day_open_oi":      "day_open_oi",
		"derived_delta_oi": "derived_delta_oi",
		"momentum":         "momentum",
		"":                 "day_open_oi",
		"unknown":          "day_open_oi",
	} {
		cfg := &config.Config{BlastStrategy: name, OIThresholdPct: 3, MomentumPct: 2}
		assert.Equal(t, want, NewBlast(cfg, fake).Name(), "strategy %q", name)
	}
}
