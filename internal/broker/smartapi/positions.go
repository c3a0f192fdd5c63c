package smartapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/pkg/errors"

	"intraday_bot/internal/models"
)

const positionPath = "/rest/secure/angelbroking/order/v1/getPosition"

// Positions перечитывает позиции у брокера. Источник истины — он:
// результат не кэшируется, движок зовёт это каждый цикл.
func (c *Client) Positions(ctx context.Context) ([]models.Position, error) {
	var rows []struct {
		TradingSymbol string `json:"tradingsymbol"`
		SymbolToken   string `json:"symboltoken"`
		NetQty        string `json:"netqty"`
		ProductType   string `json:"producttype"`
	}
	if err := c.do(ctx, http.MethodGet, positionPath, nil, &rows); err != nil {
		return nil, errors.Wrap(err, "get positions")
	}

	out := make([]models.Position, 0, len(rows))
	for _, r := range rows {
		qty, err := strconv.ParseInt(r.NetQty, 10, 64)
		if err != nil {
			qty = 0
		}
		out = append(out, models.Position{
			Symbol:  r.TradingSymbol,
			Token:   r.SymbolToken,
			NetQty:  qty,
			Product: r.ProductType,
		})
	}
	return out, nil
}
