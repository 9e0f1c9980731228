package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// OAuthクライアント未設定を示すプレースホルダー値。
// この値のままの場合、Gmail APIは利用不可として扱いサンプルデータに切り替える。
const (
	PlaceholderClientID     = "your-client-id-here"
	PlaceholderClientSecret = "your-client-secret-here"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// OAuth
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	GmailScopes        []string

	// Gemini
	GeminiAPIKey  string
	GeminiModel   string
	TriviaTimeout time.Duration

	// Session
	SessionMaxAge int

	// Server
	ServerPort string
	BaseURL    string

	// 全ページにローカルログインを要求するか。
	// falseの場合は /login と /register 以外も未ログインで閲覧できる（開発プロファイル相当）。
	RequireLogin bool

	// Cookie
	CookieSecure bool

	// Logging
	LogLevel string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
// OAuthクライアントID/シークレットは未設定でも起動できる（プレースホルダー扱い）。
func Load() (*Config, error) {
	cfg := &Config{}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	cfg.GoogleClientID = getEnvString("GOOGLE_CLIENT_ID", PlaceholderClientID)
	cfg.GoogleClientSecret = getEnvString("GOOGLE_CLIENT_SECRET", PlaceholderClientSecret)
	cfg.BaseURL = getEnvString("BASE_URL", "http://localhost:8080")
	cfg.GoogleRedirectURL = getEnvString("GOOGLE_REDIRECT_URL", cfg.BaseURL+"/oauth2/callback")
	cfg.GmailScopes = splitScopes(getEnvString("GMAIL_SCOPES", "https://www.googleapis.com/auth/gmail.readonly"))

	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.GeminiModel = getEnvString("GEMINI_MODEL", "gemini-2.5-flash-lite")
	cfg.TriviaTimeout = getEnvDuration("TRIVIA_TIMEOUT", 30*time.Second)

	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 86400)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.RequireLogin = getEnvBool("REQUIRE_LOGIN", false)
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")

	return cfg, nil
}

// GmailAPIAvailable はGmail API連携に必要なOAuthクライアント設定が
// 揃っているかを返す。プレースホルダーのままの場合はfalse。
func (c *Config) GmailAPIAvailable() bool {
	if c.GoogleClientID == "" || c.GoogleClientID == PlaceholderClientID {
		return false
	}
	if c.GoogleClientSecret == "" || c.GoogleClientSecret == PlaceholderClientSecret {
		return false
	}
	return true
}

// splitScopes はカンマ区切りのスコープ指定をリストに分解する。
func splitScopes(s string) []string {
	var scopes []string
	for _, scope := range strings.Split(s, ",") {
		scope = strings.TrimSpace(scope)
		if scope != "" {
			scopes = append(scopes, scope)
		}
	}
	return scopes
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
