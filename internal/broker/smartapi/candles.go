package smartapi

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"intraday_bot/internal/broker"
	"intraday_bot/internal/models"
)

const candlePath = "/rest/secure/angelbroking/historical/v1/getCandleData"

// временной формат запроса getCandleData
const candleTimeFormat = "2006-01-02 15:04"

// Candles тянет историю свечей. Пустой ответ и кривые строки — это
// broker.ErrNoData: бумага в этом цикле просто пропускается.
func (c *Client) Candles(ctx context.Context, exchange, token, interval string, from, to time.Time) ([]models.Candle, error) {
	body := map[string]string{
		"exchange":    exchange,
		"symboltoken": token,
		"interval":    interval,
		"fromdate":    from.Format(candleTimeFormat),
		"todate":      to.Format(candleTimeFormat),
	}

	var rows [][]any
	if err := c.do(ctx, http.MethodPost, candlePath, body, &rows); err != nil {
		return nil, errors.Wrap(err, "get candles")
	}
	if len(rows) == 0 {
		return nil, broker.ErrNoData
	}

	out := make([]models.Candle, 0, len(rows))
	for _, row := range rows {
		// [timestamp, open, high, low, close, volume]
		if len(row) < 6 {
			return nil, errors.Wrap(broker.ErrNoData, "short candle row")
		}
		ts, ok := row[0].(string)
		if !ok {
			return nil, errors.Wrap(broker.ErrNoData, "bad candle timestamp")
		}
		t, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, errors.Wrap(broker.ErrNoData, "bad candle timestamp")
		}

		var vals [5]float64
		for i := 0; i < 5; i++ {
			f, ok := numF(row[i+1])
			if !ok {
				return nil, errors.Wrap(broker.ErrNoData, "bad candle field")
			}
			vals[i] = f
		}

		out = append(out, models.Candle{
			Time:   t,
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
		})
	}
	return out, nil
}
