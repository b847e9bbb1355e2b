package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	ProviderArk    = "ark"
	ProviderGemini = "gemini"

	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverSQLite   = "sqlite"
	DriverSupabase = "supabase"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server    ServerConfig
	AI        AIConfig
	Session   SessionConfig
	Catalog   CatalogConfig
	Diagnosis DiagnosisConfig
	Log       LogConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	session, err := loadSessionConfig()
	if err != nil {
		return nil, err
	}

	catalog, err := loadCatalogConfig()
	if err != nil {
		return nil, err
	}

	diagnosis, err := loadDiagnosisConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:    server,
		AI:        ai,
		Session:   session,
		Catalog:   catalog,
		Diagnosis: diagnosis,
		Log: LogConfig{
			Level: getEnvOrDefault("LOG_LEVEL", "info"),
			Env:   getEnvOrDefault("APP_ENV", "production"),
		},
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	origins := splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*"))

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port, AllowedOrigins: origins}, nil
	}

	if _, err := strconv.Atoi(port); err != nil {
		return ServerConfig{}, fmt.Errorf("invalid PORT value %q: %w", port, err)
	}

	return ServerConfig{Addr: ":" + port, AllowedOrigins: origins}, nil
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	Provider     string
	APIKey       string
	AccessKey    string
	SecretKey    string
	Model        string
	BaseURL      string
	Region       string
	GeminiAPIKey string
	GeminiModel  string
	Temperature  float64
	MaxTokens    int
	Timeout      time.Duration
}

// Enabled 表示当前提供方是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	switch c.Provider {
	case ProviderGemini:
		return c.GeminiAPIKey != "" && c.GeminiModel != ""
	default:
		return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
	}
}

// NewChatModel 使用配置创建一个 Ark 模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if c.Provider != ProviderArk || !c.Enabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + ARK_MODEL 或 AK/SK 组合")
	}

	temperature := float32(c.Temperature)
	maxTokens := c.MaxTokens

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	provider := strings.ToLower(getEnvOrDefault("AI_PROVIDER", ProviderArk))
	if provider != ProviderArk && provider != ProviderGemini {
		return AIConfig{}, fmt.Errorf("invalid AI_PROVIDER value %q: expected %s or %s", provider, ProviderArk, ProviderGemini)
	}

	temperature := 0.3
	if override, err := parseOptionalFloatEnv("AI_TEMPERATURE"); err != nil {
		return AIConfig{}, err
	} else if override != nil {
		if *override < 0 || *override > 2 {
			return AIConfig{}, fmt.Errorf("invalid AI_TEMPERATURE value %q: must be within [0, 2]", os.Getenv("AI_TEMPERATURE"))
		}
		temperature = *override
	}

	maxTokens := 2000
	if override, err := parseOptionalIntEnv("AI_MAX_TOKENS"); err != nil {
		return AIConfig{}, err
	} else if override != nil && *override > 0 {
		maxTokens = *override
	}

	timeout, err := parseDurationEnv("AI_TIMEOUT", 60*time.Second)
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		Provider:     provider,
		APIKey:       strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:    strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:    strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:        getEnvOrDefault("ARK_MODEL", "doubao-seed-1-6-vision-250815"),
		BaseURL:      getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:       getEnvOrDefault("ARK_REGION", "cn-beijing"),
		GeminiAPIKey: strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:  getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		Temperature:  temperature,
		MaxTokens:    maxTokens,
		Timeout:      timeout,
	}, nil
}

// SessionConfig 描述会话存储配置。
type SessionConfig struct {
	Driver          string
	TTL             time.Duration
	CleanupInterval time.Duration
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
}

func loadSessionConfig() (SessionConfig, error) {
	driver := strings.ToLower(getEnvOrDefault("SESSION_DRIVER", DriverMemory))
	if driver != DriverMemory && driver != DriverRedis {
		return SessionConfig{}, fmt.Errorf("invalid SESSION_DRIVER value %q: expected %s or %s", driver, DriverMemory, DriverRedis)
	}

	ttl, err := parseDurationEnv("SESSION_TTL", 24*time.Hour)
	if err != nil {
		return SessionConfig{}, err
	}
	cleanup, err := parseDurationEnv("SESSION_CLEANUP_INTERVAL", 5*time.Minute)
	if err != nil {
		return SessionConfig{}, err
	}

	db := 0
	if override, err := parseOptionalIntEnv("REDIS_DB"); err != nil {
		return SessionConfig{}, err
	} else if override != nil {
		db = *override
	}

	return SessionConfig{
		Driver:          driver,
		TTL:             ttl,
		CleanupInterval: cleanup,
		RedisAddr:       getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		RedisDB:         db,
	}, nil
}

// CatalogConfig 描述商品目录后端配置。
type CatalogConfig struct {
	Driver      string
	SeedFile    string
	SQLitePath  string
	SupabaseURL string
	SupabaseKey string
}

func loadCatalogConfig() (CatalogConfig, error) {
	driver := strings.ToLower(getEnvOrDefault("CATALOG_DRIVER", DriverMemory))
	switch driver {
	case DriverMemory, DriverSQLite, DriverSupabase:
	default:
		return CatalogConfig{}, fmt.Errorf("invalid CATALOG_DRIVER value %q", driver)
	}

	cfg := CatalogConfig{
		Driver:      driver,
		SeedFile:    strings.TrimSpace(os.Getenv("CATALOG_SEED_FILE")),
		SQLitePath:  getEnvOrDefault("CATALOG_SQLITE_PATH", "file:catalog.db?_pragma=busy_timeout(5000)"),
		SupabaseURL: strings.TrimSpace(os.Getenv("SUPABASE_URL")),
		SupabaseKey: strings.TrimSpace(os.Getenv("SUPABASE_KEY")),
	}
	if driver == DriverSupabase && (cfg.SupabaseURL == "" || cfg.SupabaseKey == "") {
		return CatalogConfig{}, fmt.Errorf("CATALOG_DRIVER=supabase requires SUPABASE_URL and SUPABASE_KEY")
	}
	return cfg, nil
}

// DiagnosisConfig 描述流程参数。
type DiagnosisConfig struct {
	RecommendLimit int
	MaxImageBytes  int
}

func loadDiagnosisConfig() (DiagnosisConfig, error) {
	cfg := DiagnosisConfig{RecommendLimit: 6, MaxImageBytes: 10 << 20}

	if override, err := parseOptionalIntEnv("RECOMMEND_LIMIT"); err != nil {
		return DiagnosisConfig{}, err
	} else if override != nil && *override > 0 {
		cfg.RecommendLimit = *override
	}

	if override, err := parseOptionalIntEnv("MAX_IMAGE_BYTES"); err != nil {
		return DiagnosisConfig{}, err
	} else if override != nil && *override > 0 {
		cfg.MaxImageBytes = *override
	}
	return cfg, nil
}

// LogConfig 描述日志配置。
type LogConfig struct {
	Level string
	Env   string
}

// NewLogger 按环境构建 zap 日志器。
func (c LogConfig) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL value %q: %w", c.Level, err)
	}

	zc := zap.NewProductionConfig()
	if c.Env == "development" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
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

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if val <= 0 {
		return 0, fmt.Errorf("invalid %s value %q: must be positive", key, raw)
	}
	return val, nil
}
