// Package smartapi — HTTP-клиент Angel One SmartAPI: сессия, свечи, котировки,
// позиции, книга ордеров, выставление/модификация ордеров, скрип-мастер.
package smartapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"intraday_bot/internal/modules/config"
)

const defaultBaseURL = "https://apiconnect.angelone.in"

type Client struct {
	http    *http.Client
	limiter *rate.Limiter

	apiKey   string
	clientID string
	pin      string
	totpKey  string

	jwt string // после Login

	baseURL  string // подменяется в тестах
	scripURL string
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		http: &http.Client{Timeout: 10 * time.Second},
		// SmartAPI режет ~10 rps на secure-эндпоинты, держимся заметно ниже
		limiter:  rate.NewLimiter(rate.Limit(3), 3),
		apiKey:   cfg.APIKey,
		clientID: cfg.ClientID,
		pin:      cfg.PIN,
		totpKey:  cfg.TOTPKey,
		baseURL:  defaultBaseURL,
		scripURL: scripMasterURL,
	}
}

// envelope — общий конверт ответов SmartAPI.
type envelope struct {
	Status    bool            `json:"status"`
	Message   string          `json:"message"`
	ErrorCode string          `json:"errorcode"`
	Data      json.RawMessage `json:"data"`
}

// do выполняет запрос и раскладывает data конверта в out (если out != nil).
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var rd io.Reader
	if body != nil {
		payload, err := sonic.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "marshal body")
		}
		rd = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return errors.Wrap(err, "new request")
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return errors.Errorf("http %d: %s", resp.StatusCode, string(data))
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return errors.Wrapf(err, "decode envelope; body=%s", string(data))
	}
	if !env.Status {
		return errors.Errorf("smartapi rejected: code=%s msg=%s", env.ErrorCode, env.Message)
	}
	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return errors.Wrap(err, "decode data")
		}
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-UserType", "USER")
	req.Header.Set("X-SourceID", "WEB")
	req.Header.Set("X-ClientLocalIP", "127.0.0.1")
	req.Header.Set("X-ClientPublicIP", "127.0.0.1")
	req.Header.Set("X-MACAddress", "00:00:00:00:00:00")
	req.Header.Set("X-PrivateKey", c.apiKey)
	if c.jwt != "" {
		req.Header.Set("Authorization", "Bearer "+c.jwt)
	}
}

// numF — SmartAPI отдаёт числа то числом, то строкой.
func numF(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
