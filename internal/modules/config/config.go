package config

import (
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	apiKeyENV         = "SMARTAPI_KEY"
	clientIDENV       = "SMARTAPI_CLIENT_ID"
	pinENV            = "SMARTAPI_PIN"
	totpKeyENV        = "SMARTAPI_TOTP_KEY"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	chatIDTelegramENV = "TELEGRAM_CHAT_ID"
)

// Config ...
type Config struct {
	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`

	// Кредсы SmartAPI — только из ENV, в yaml их не кладём.
	APIKey   string `yaml:"-"`
	ClientID string `yaml:"-"`
	PIN      string `yaml:"-"`
	TOTPKey  string `yaml:"-"`

	// Риск / сайзинг
	CapitalPerTrade float64 `yaml:"capital_per_trade"` // рупий на сделку
	Leverage        float64 `yaml:"leverage"`
	ATRMultiplier   float64 `yaml:"atr_multiplier"` // дистанция стопа = ATR * k

	// Вселенная и бенчмарк
	BenchmarkToken   string `yaml:"benchmark_token"` // NIFTY 50 spot
	MaxOpenPositions int    `yaml:"max_open_positions"`

	// Подтверждение по OI
	BlastStrategy  string  `yaml:"blast_strategy"`   // day_open_oi | derived_delta_oi | momentum
	OIThresholdPct float64 `yaml:"oi_threshold_pct"` // строго больше => подтверждено
	MomentumPct    float64 `yaml:"momentum_pct"`     // порог для momentum-фоллбэка
	TrailBufferPct float64 `yaml:"trail_buffer_pct"` // например 0.05 => 0.05% от EMA
	TickSize       float64 `yaml:"tick_size"`        // NSE: 0.05

	// Длительности — только из ENV (yaml.v2 не умеет time.Duration).
	IntradayLookback  time.Duration `yaml:"-"` // окно 5m-свечей, напр. 4h
	DailyLookbackDays int           `yaml:"daily_lookback_days"`

	// Окна сессии (IST, [start, end))
	EntryWindowStart string `yaml:"entry_window_start"` // "10:00"
	EntryWindowEnd   string `yaml:"entry_window_end"`   // "11:00"
	ForceExitStart   string `yaml:"force_exit_start"`   // "14:50"
	MarketClose      string `yaml:"market_close"`       // "15:30"

	PollInterval time.Duration `yaml:"-"` // пауза между циклами, ENV POLL_INTERVAL
}

func NewConfig() (*Config, error) {
	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	file, err := os.Open("configs/" + configFileName)
	if err != nil {
		return nil, errors.Wrap(err, "open config file")
	}

	defer func() {
		_ = file.Close()
	}()

	decoder := yaml.NewDecoder(file)
	config := Config{
		CapitalPerTrade:   floatFromEnv("CAPITAL_PER_TRADE", 5000),
		Leverage:          floatFromEnv("LEVERAGE", 5),
		ATRMultiplier:     floatFromEnv("ATR_MULTIPLIER", 2.0),
		BenchmarkToken:    getenvDefault("BENCHMARK_TOKEN", "99926000"),
		MaxOpenPositions:  intFromEnv("MAX_OPEN_POSITIONS", 1),
		BlastStrategy:     getenvDefault("BLAST_STRATEGY", "day_open_oi"),
		OIThresholdPct:    floatFromEnv("OI_THRESHOLD_PCT", 3.0),
		MomentumPct:       floatFromEnv("MOMENTUM_PCT", 2.0),
		TrailBufferPct:    floatFromEnv("TRAIL_BUFFER_PCT", 0.05),
		TickSize:          floatFromEnv("TICK_SIZE", 0.05),
		IntradayLookback:  durationFromEnv("INTRADAY_LOOKBACK", "4h"),
		DailyLookbackDays: intFromEnv("DAILY_LOOKBACK_DAYS", 5),

		EntryWindowStart: getenvDefault("ENTRY_WINDOW_START", "10:00"),
		EntryWindowEnd:   getenvDefault("ENTRY_WINDOW_END", "11:00"),
		ForceExitStart:   getenvDefault("FORCE_EXIT_START", "14:50"),
		MarketClose:      getenvDefault("MARKET_CLOSE", "15:30"),

		PollInterval: durationFromEnv("POLL_INTERVAL", "60s"),
	}
	err = decoder.Decode(&config)
	if err != nil {
		return nil, errors.Wrap(err, "decode config file")
	}

	config.APIKey = os.Getenv(apiKeyENV)
	config.ClientID = os.Getenv(clientIDENV)
	config.PIN = os.Getenv(pinENV)
	config.TOTPKey = os.Getenv(totpKeyENV)

	if token := os.Getenv(tokenTelegramENV); token != "" {
		config.Telegram.Token = token
	}
	if v := os.Getenv(chatIDTelegramENV); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.Telegram.ChatID = id
		}
	}

	return &config, nil
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func floatFromEnv(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationFromEnv(key, def string) time.Duration {
	val := getenvDefault(key, def)
	d, err := time.ParseDuration(val)
	if err != nil {
		d, _ = time.ParseDuration(def)
	}
	return d
}
