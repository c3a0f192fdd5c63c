package smartapi

import (
	"context"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"intraday_bot/internal/models"
)

const scripMasterURL = "https://margincalculator.angelbroking.com/OpenAPI_File/files/OpenAPIScripMaster.json"

// expiry в скрип-мастере: "25JAN2024" (Go матчит месяц без учёта регистра)
const expiryFormat = "02Jan2006"

// Instruments скачивает скрип-мастер и собирает вселенную: для каждой бумаги
// со стоковым фьючерсом — equity-токен NSE и токен ближайшего контракта NFO.
// Снимок многомегабайтный, поэтому sonic. Вызывается один раз на старте;
// порядок результата детерминирован (имена по алфавиту) — от него зависит
// порядок сканирования.
func (c *Client) Instruments(ctx context.Context) ([]models.Instrument, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.scripURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "scrip master request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "scrip master download")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "scrip master read")
	}
	if resp.StatusCode/100 != 2 {
		return nil, errors.Errorf("scrip master http %d", resp.StatusCode)
	}

	var rows []struct {
		Token          string `json:"token"`
		Symbol         string `json:"symbol"`
		Name           string `json:"name"`
		Expiry         string `json:"expiry"`
		ExchSeg        string `json:"exch_seg"`
		InstrumentType string `json:"instrumenttype"`
	}
	if err := sonic.Unmarshal(raw, &rows); err != nil {
		return nil, errors.Wrap(err, "scrip master decode")
	}

	type contract struct {
		token  string
		expiry time.Time
	}

	// ближайший фьючерс на каждую бумагу
	futs := map[string]contract{}
	for _, r := range rows {
		if r.InstrumentType != "FUTSTK" || r.ExchSeg != "NFO" {
			continue
		}
		exp, err := time.Parse(expiryFormat, r.Expiry)
		if err != nil {
			continue
		}
		cur, ok := futs[r.Name]
		if !ok || exp.Before(cur.expiry) {
			futs[r.Name] = contract{token: r.Token, expiry: exp}
		}
	}

	// кэш-рынок: NAME -> токен NAME-EQ на NSE
	eq := map[string]string{}
	for _, r := range rows {
		if r.ExchSeg == "NSE" && strings.HasSuffix(r.Symbol, "-EQ") {
			if _, ok := futs[r.Name]; ok {
				if _, seen := eq[r.Name]; !seen {
					eq[r.Name] = r.Token
				}
			}
		}
	}

	names := make([]string, 0, len(futs))
	for name := range futs {
		if _, ok := eq[name]; ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	out := make([]models.Instrument, 0, len(names))
	for _, name := range names {
		f := futs[name]
		out = append(out, models.Instrument{
			Name:      name,
			EqToken:   eq[name],
			EqSymbol:  name + "-EQ",
			FutToken:  f.token,
			FutExpiry: f.expiry,
		})
	}
	return out, nil
}
