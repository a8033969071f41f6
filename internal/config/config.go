package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Sink kinds accepted by INTAKE_SINK.
const (
	SinkAuto     = "auto"
	SinkSupabase = "supabase"
	SinkPostgres = "postgres"
	SinkSQLite   = "sqlite"
	SinkNone     = "none"
)

// DefaultAllowedOrigins 与前端部署地址保持一致。
var DefaultAllowedOrigins = []string{
	"http://localhost:3000",
	"https://ai-smartrreceptionist.vercel.app",
}

// Config 聚合整个服务的配置项。
type Config struct {
	Server   ServerConfig
	Sink     SinkConfig
	Notifier NotifierConfig
	Log      LogConfig
	// WardCatalogFile optionally overrides ward wording, see ward.LoadFile.
	WardCatalogFile string
	MetricsEnabled  bool
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	sink, err := loadSinkConfig()
	if err != nil {
		return nil, err
	}

	notifier, err := loadNotifierConfig()
	if err != nil {
		return nil, err
	}

	logCfg, err := loadLogConfig()
	if err != nil {
		return nil, err
	}

	metricsEnabled, err := parseBoolEnv("METRICS_ENABLED", true)
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:          server,
		Sink:            sink,
		Notifier:        notifier,
		Log:             logCfg,
		WardCatalogFile: strings.TrimSpace(os.Getenv("WARD_CATALOG_FILE")),
		MetricsEnabled:  metricsEnabled,
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

// loadServerConfig 解析服务器监听地址与跨域白名单。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8000"
	}

	origins := parseListEnv("CORS_ALLOWED_ORIGINS")
	if len(origins) == 0 {
		origins = append([]string(nil), DefaultAllowedOrigins...)
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8000" 或 "127.0.0.1:8000"。
		return ServerConfig{Addr: port, AllowedOrigins: origins}, nil
	}

	if _, err := strconv.Atoi(port); err != nil {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, AllowedOrigins: origins}, nil
}

// SinkConfig 描述接诊记录的持久化目标。
type SinkConfig struct {
	Kind        string
	SupabaseURL string
	SupabaseKey string
	Table       string
	DatabaseURL string
	SQLitePath  string
}

// SupabaseEnabled 表示是否提供了 Supabase 凭证。
func (c SinkConfig) SupabaseEnabled() bool {
	return c.SupabaseURL != "" && c.SupabaseKey != ""
}

// Resolve picks the concrete sink kind. "auto" prefers Supabase, then
// Postgres, then SQLite, and falls back to none.
func (c SinkConfig) Resolve() string {
	if c.Kind != SinkAuto {
		return c.Kind
	}
	switch {
	case c.SupabaseEnabled():
		return SinkSupabase
	case c.DatabaseURL != "":
		return SinkPostgres
	case c.SQLitePath != "":
		return SinkSQLite
	default:
		return SinkNone
	}
}

func loadSinkConfig() (SinkConfig, error) {
	kind := strings.ToLower(getEnvOrDefault("INTAKE_SINK", SinkAuto))
	switch kind {
	case SinkAuto, SinkSupabase, SinkPostgres, SinkSQLite, SinkNone:
	default:
		return SinkConfig{}, fmt.Errorf("invalid INTAKE_SINK value %q", kind)
	}

	return SinkConfig{
		Kind:        kind,
		SupabaseURL: strings.TrimRight(strings.TrimSpace(os.Getenv("SUPABASE_URL")), "/"),
		SupabaseKey: strings.TrimSpace(os.Getenv("SUPABASE_KEY")),
		Table:       getEnvOrDefault("SUPABASE_TABLE", "patients"),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SQLitePath:  strings.TrimSpace(os.Getenv("SQLITE_PATH")),
	}, nil
}

// NotifierConfig 描述完成接诊后的 webhook 通知。
type NotifierConfig struct {
	WebhookURL string
	Timeout    time.Duration
}

// Enabled 表示是否配置了 webhook 地址。
func (c NotifierConfig) Enabled() bool {
	return c.WebhookURL != ""
}

func loadNotifierConfig() (NotifierConfig, error) {
	timeout, err := parseOptionalFloatEnv("WEBHOOK_TIMEOUT")
	if err != nil {
		return NotifierConfig{}, err
	}
	seconds := 10.0 // 默认10秒
	if timeout != nil {
		if *timeout <= 0 {
			return NotifierConfig{}, fmt.Errorf("invalid WEBHOOK_TIMEOUT value %v: must be positive", *timeout)
		}
		seconds = *timeout
	}

	return NotifierConfig{
		WebhookURL: strings.TrimSpace(os.Getenv("WEBHOOK_URL")),
		Timeout:    time.Duration(seconds * float64(time.Second)),
	}, nil
}

// LogConfig 描述日志级别与输出格式。
type LogConfig struct {
	Level       string
	Development bool
}

func loadLogConfig() (LogConfig, error) {
	dev, err := parseBoolEnv("LOG_DEVELOPMENT", false)
	if err != nil {
		return LogConfig{}, err
	}
	return LogConfig{
		Level:       strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
		Development: dev,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseListEnv(key string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}

	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
