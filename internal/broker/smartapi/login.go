package smartapi

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/pquerna/otp/totp"
)

const loginPath = "/rest/auth/angelbroking/user/v1/loginByPassword"

// Login обменивает clientcode+PIN+TOTP на JWT-сессию.
// Ошибка здесь фатальна для процесса: без сессии ни одно действие не безопасно,
// ретраев нет — решает вызывающий (main падает через logger.Fatal).
func (c *Client) Login(ctx context.Context) error {
	code, err := totp.GenerateCode(c.totpKey, time.Now())
	if err != nil {
		return errors.Wrap(err, "generate totp")
	}

	body := map[string]string{
		"clientcode": c.clientID,
		"password":   c.pin,
		"totp":       code,
	}

	var data struct {
		JWTToken     string `json:"jwtToken"`
		RefreshToken string `json:"refreshToken"`
		FeedToken    string `json:"feedToken"`
	}
	if err := c.do(ctx, http.MethodPost, loginPath, body, &data); err != nil {
		return errors.Wrap(err, "login")
	}
	if data.JWTToken == "" {
		return errors.New("login: empty jwt in response")
	}

	c.jwt = data.JWTToken
	return nil
}
