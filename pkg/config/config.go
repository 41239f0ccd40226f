package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shouni/gemini-icon-kit/pkg/generator"
	"github.com/shouni/gemini-icon-kit/pkg/session"
	"github.com/shouni/gemini-icon-kit/pkg/source"
)

// Provider は生成リクエストの送り先です。
type Provider string

const (
	// ProviderDirect は Gemini API を API キーで直接呼び出します。
	ProviderDirect Provider = "direct"
	// ProviderProxy はバックエンド (/api/generate) 経由で呼び出します。
	ProviderProxy Provider = "proxy"
)

const (
	DefaultAPIURL      = "http://localhost:5000"
	DefaultHTTPTimeout = 120 * time.Second
)

// Config は実行時の設定をまとめたものです。グローバルには保持しません。
type Config struct {
	Provider       Provider
	GeminiAPIKey   string
	GeminiModel    string
	APIURL         string
	SessionFile    string
	HTTPTimeout    time.Duration
	MaxSourceBytes int
	LogLevel       slog.Level
}

// Load は .env (あれば) と環境変数から設定を読み込みます。
func Load(envFiles ...string) (*Config, error) {
	// .env ファイル (あれば)。既に設定済みの環境変数は上書きしない
	if err := godotenv.Load(envFiles...); err != nil {
		slog.Debug(".env ファイルが見つからないため環境変数のみを使用します", "error", err)
	}

	cfg := &Config{
		Provider:     Provider(strings.ToLower(getEnv("ICONKIT_PROVIDER", string(ProviderDirect)))),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", generator.DefaultModel),
		APIURL:       getEnv("ICONKIT_API_URL", DefaultAPIURL),
		SessionFile:  getEnv("ICONKIT_SESSION_FILE", ""),
	}

	var err error
	if cfg.HTTPTimeout, err = parseDuration("ICONKIT_HTTP_TIMEOUT", DefaultHTTPTimeout); err != nil {
		return nil, err
	}
	if cfg.MaxSourceBytes, err = parsePositiveInt("ICONKIT_MAX_SOURCE_BYTES", source.MaxSourceBytes); err != nil {
		return nil, err
	}
	if cfg.LogLevel, err = parseLevel(getEnv("ICONKIT_LOG_LEVEL", "info")); err != nil {
		return nil, err
	}

	if cfg.SessionFile == "" {
		path, err := session.DefaultPath()
		if err != nil {
			return nil, err
		}
		cfg.SessionFile = path
	}

	return cfg, nil
}

// UnknownModel は設定されたモデルが既知のモデル一覧にない場合に true を返します。
// 未知のモデルも送信には使えるため、警告するかどうかは呼び出し側が決めます。
func (c *Config) UnknownModel() bool {
	return c.GeminiModel != "" && !generator.IsKnownModel(c.GeminiModel)
}

// Validate はプロバイダごとに必須の設定を検証します。
// proxy のトークンはログイン後に得るため、ここでは検証しません。
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderDirect:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for provider %q", c.Provider)
		}
		if c.GeminiModel == "" {
			return fmt.Errorf("GEMINI_MODEL is required")
		}
	case ProviderProxy:
		if c.APIURL == "" {
			return fmt.Errorf("ICONKIT_API_URL is required for provider %q", c.Provider)
		}
	default:
		return fmt.Errorf("unknown ICONKIT_PROVIDER: %q (direct or proxy)", c.Provider)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("ICONKIT_HTTP_TIMEOUT must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s の形式が不正です: %w", key, err)
	}
	return d, nil
}

func parsePositiveInt(key string, defaultValue int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s は正の整数で指定してください: %q", key, raw)
	}
	return n, nil
}

func parseLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return slog.LevelInfo, fmt.Errorf("ICONKIT_LOG_LEVEL の形式が不正です: %w", err)
	}
	return level, nil
}
