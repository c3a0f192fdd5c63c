package smartapi

import (
	"context"
	"net/http"

	"github.com/pkg/errors"

	"intraday_bot/internal/broker"
)

const quotePath = "/rest/secure/angelbroking/market/v1/quote/"

// FullQuote — полная котировка одного токена (режим FULL).
// Нужна ради OI фьючерса; отсутствующие поля остаются нулями,
// стратегии обязаны трактовать нули как "не подтверждено".
func (c *Client) FullQuote(ctx context.Context, exchange, token string) (broker.Quote, error) {
	body := map[string]any{
		"mode": "FULL",
		"exchangeTokens": map[string][]string{
			exchange: {token},
		},
	}

	var data struct {
		Fetched []struct {
			LTP           float64 `json:"ltp"`
			PercentChange float64 `json:"percentChange"`
			OI            float64 `json:"oi"`
			DayOpenOI     float64 `json:"opnInterest"`
			OIChange      float64 `json:"netChangeOpnInterest"`
		} `json:"fetched"`
	}
	if err := c.do(ctx, http.MethodPost, quotePath, body, &data); err != nil {
		return broker.Quote{}, errors.Wrap(err, "full quote")
	}
	if len(data.Fetched) == 0 {
		return broker.Quote{}, broker.ErrNoData
	}

	row := data.Fetched[0]
	return broker.Quote{
		LTP:           row.LTP,
		PercentChange: row.PercentChange,
		OI:            row.OI,
		DayOpenOI:     row.DayOpenOI,
		OIChange:      row.OIChange,
	}, nil
}
