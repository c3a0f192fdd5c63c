package smartapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"intraday_bot/internal/broker"
	"intraday_bot/internal/models"
)

const (
	orderBookPath   = "/rest/secure/angelbroking/order/v1/getOrderBook"
	placeOrderPath  = "/rest/secure/angelbroking/order/v1/placeOrder"
	modifyOrderPath = "/rest/secure/angelbroking/order/v1/modifyOrder"
)

// PendingOrders — книга ордеров, отфильтрованная до невыстреливших стопов.
func (c *Client) PendingOrders(ctx context.Context) ([]models.PendingOrder, error) {
	var rows []struct {
		OrderID         string `json:"orderid"`
		TradingSymbol   string `json:"tradingsymbol"`
		TransactionType string `json:"transactiontype"`
		Status          string `json:"status"`
		Price           string `json:"price"`
		TriggerPrice    string `json:"triggerprice"`
		Quantity        string `json:"quantity"`
	}
	if err := c.do(ctx, http.MethodGet, orderBookPath, nil, &rows); err != nil {
		return nil, errors.Wrap(err, "get order book")
	}

	out := make([]models.PendingOrder, 0, len(rows))
	for _, r := range rows {
		if !strings.EqualFold(r.Status, broker.StatusTriggerPending) {
			continue
		}
		price, _ := strconv.ParseFloat(r.Price, 64)
		trigger, _ := strconv.ParseFloat(r.TriggerPrice, 64)
		qty, _ := strconv.ParseInt(r.Quantity, 10, 64)
		out = append(out, models.PendingOrder{
			OrderID:      r.OrderID,
			Symbol:       r.TradingSymbol,
			Side:         r.TransactionType,
			Status:       broker.StatusTriggerPending,
			Price:        price,
			TriggerPrice: trigger,
			Quantity:     qty,
		})
	}
	return out, nil
}

// PlaceOrder выставляет ордер и возвращает orderid брокера.
func (c *Client) PlaceOrder(ctx context.Context, p broker.OrderParams) (string, error) {
	body := map[string]string{
		"variety":         p.Variety,
		"tradingsymbol":   p.Symbol,
		"symboltoken":     p.Token,
		"transactiontype": p.Side,
		"exchange":        p.Exchange,
		"ordertype":       p.OrderType,
		"producttype":     p.Product,
		"duration":        p.Duration,
		"quantity":        strconv.FormatInt(p.Quantity, 10),
	}
	if p.Price > 0 {
		body["price"] = strconv.FormatFloat(p.Price, 'f', 2, 64)
	}
	if p.TriggerPrice > 0 {
		body["triggerprice"] = strconv.FormatFloat(p.TriggerPrice, 'f', 2, 64)
	}

	var data struct {
		OrderID string `json:"orderid"`
	}
	if err := c.do(ctx, http.MethodPost, placeOrderPath, body, &data); err != nil {
		return "", errors.Wrap(err, "place order")
	}
	if data.OrderID == "" {
		return "", errors.New("place order: empty orderid")
	}
	return data.OrderID, nil
}

// ModifyOrder перевыставляет цены существующего ордера (трейлинг стопа).
func (c *Client) ModifyOrder(ctx context.Context, orderID string, p broker.ModifyParams) error {
	body := map[string]string{
		"orderid":       orderID,
		"variety":       p.Variety,
		"tradingsymbol": p.Symbol,
		"symboltoken":   p.Token,
		"exchange":      p.Exchange,
		"ordertype":     p.OrderType,
		"producttype":   p.Product,
		"duration":      p.Duration,
		"quantity":      strconv.FormatInt(p.Quantity, 10),
		"price":         strconv.FormatFloat(p.Price, 'f', 2, 64),
		"triggerprice":  strconv.FormatFloat(p.TriggerPrice, 'f', 2, 64),
	}
	if err := c.do(ctx, http.MethodPost, modifyOrderPath, body, nil); err != nil {
		return errors.Wrap(err, "modify order")
	}
	return nil
}
