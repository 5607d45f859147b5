// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AI 提供商名称
const (
	ProviderGoogle    = "google"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// S3Config 导出文件上传配置
type S3Config struct {
	Bucket    string `yaml:"bucket" json:"bucket,omitempty"`
	Region    string `yaml:"region" json:"region,omitempty"`
	Endpoint  string `yaml:"endpoint" json:"endpoint,omitempty"`
	AccessKey string `yaml:"access_key" json:"-"`
	SecretKey string `yaml:"secret_key" json:"-"`
}

// Enabled 是否配置了上传目标
func (s S3Config) Enabled() bool {
	return s.Bucket != ""
}

// Config 存储应用配置
type Config struct {
	// 基础配置
	Port      string `yaml:"port"`
	DataDir   string `yaml:"data_dir"`
	LogDir    string `yaml:"log_dir"`
	DebugMode bool   `yaml:"debug_mode"`

	// 素材提供商密钥
	PexelsAPIKey      string `yaml:"pexels_api_key"`
	PixabayAPIKey     string `yaml:"pixabay_api_key"`
	UnsplashAccessKey string `yaml:"unsplash_access_key"`

	// AI 相关配置
	GoogleAPIKey     string `yaml:"google_api_key"`
	AnthropicAPIKey  string `yaml:"anthropic_api_key"`
	OpenAIAPIKey     string `yaml:"openai_api_key"`
	AIEnabled        bool   `yaml:"ai_enabled"`
	AIProvider       string `yaml:"ai_provider"`
	AIModel          string `yaml:"ai_model"`
	AITimeoutSeconds int    `yaml:"ai_timeout_seconds"`

	// 搜索与批处理
	SearchTimeoutSeconds int     `yaml:"search_timeout_seconds"`
	SearchRatePerSecond  float64 `yaml:"search_rate_per_second"`
	BatchWorkers         int     `yaml:"batch_workers"`
	QueryLimit           int     `yaml:"query_limit"`

	S3 S3Config `yaml:"s3"`
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Port:                 "8080",
		DataDir:              "data",
		LogDir:               "logs",
		AIProvider:           ProviderGoogle,
		AITimeoutSeconds:     30,
		SearchTimeoutSeconds: 15,
		SearchRatePerSecond:  5,
		BatchWorkers:         4,
		QueryLimit:           12,
	}
}

// Load 依次应用默认值、CONFIG_FILE 指定的 YAML 文件和环境变量
func Load() (*Config, error) {
	// 尝试加载.env文件（可选）
	_ = godotenv.Load()

	cfg := Default()
	aiEnabledSet := false

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		set, err := cfg.overlayFile(path)
		if err != nil {
			return nil, err
		}
		aiEnabledSet = set
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.DataDir = getEnv("DATA_DIR", cfg.DataDir)
	cfg.LogDir = getEnv("LOG_DIR", cfg.LogDir)
	cfg.DebugMode = getEnvBool("DEBUG_MODE", cfg.DebugMode)

	cfg.PexelsAPIKey = getEnv("PEXELS_API_KEY", cfg.PexelsAPIKey)
	cfg.PixabayAPIKey = getEnv("PIXABAY_API_KEY", cfg.PixabayAPIKey)
	cfg.UnsplashAccessKey = getEnv("UNSPLASH_ACCESS_KEY", cfg.UnsplashAccessKey)

	cfg.GoogleAPIKey = getEnv("GOOGLE_API_KEY", cfg.GoogleAPIKey)
	cfg.AnthropicAPIKey = getEnv("ANTHROPIC_API_KEY", cfg.AnthropicAPIKey)
	cfg.OpenAIAPIKey = getEnv("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.AIProvider = strings.ToLower(getEnv("AI_PROVIDER", cfg.AIProvider))
	cfg.AIModel = getEnv("AI_MODEL", cfg.AIModel)
	cfg.AITimeoutSeconds = getEnvInt("AI_TIMEOUT_SECONDS", cfg.AITimeoutSeconds)

	// 未显式设置时，只要有任一 AI 密钥即启用
	if os.Getenv("AI_ENABLED") != "" {
		cfg.AIEnabled = getEnvBool("AI_ENABLED", false)
	} else if !aiEnabledSet {
		cfg.AIEnabled = cfg.GoogleAPIKey != "" || cfg.AnthropicAPIKey != "" || cfg.OpenAIAPIKey != ""
	}

	cfg.SearchTimeoutSeconds = getEnvInt("SEARCH_TIMEOUT_SECONDS", cfg.SearchTimeoutSeconds)
	cfg.SearchRatePerSecond = getEnvFloat("SEARCH_RATE_PER_SECOND", cfg.SearchRatePerSecond)
	cfg.BatchWorkers = getEnvInt("BATCH_WORKERS", cfg.BatchWorkers)
	cfg.QueryLimit = getEnvInt("QUERY_LIMIT", cfg.QueryLimit)

	cfg.S3.Bucket = getEnv("S3_BUCKET", cfg.S3.Bucket)
	cfg.S3.Region = getEnv("S3_REGION", cfg.S3.Region)
	cfg.S3.Endpoint = getEnv("S3_ENDPOINT", cfg.S3.Endpoint)
	cfg.S3.AccessKey = getEnv("S3_ACCESS_KEY", cfg.S3.AccessKey)
	cfg.S3.SecretKey = getEnv("S3_SECRET_KEY", cfg.S3.SecretKey)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// overlayFile 用 YAML 文件覆盖当前值，返回文件中是否出现 ai_enabled
func (c *Config) overlayFile(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("读取配置文件失败: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return false, fmt.Errorf("解析配置文件失败: %w", err)
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return false, fmt.Errorf("解析配置文件失败: %w", err)
	}
	_, set := raw["ai_enabled"]
	return set, nil
}

// Validate 校验并修正数值配置
func (c *Config) Validate() error {
	switch c.AIProvider {
	case ProviderGoogle, ProviderAnthropic, ProviderOpenAI:
	default:
		return fmt.Errorf("不支持的AI提供商: %s", c.AIProvider)
	}
	if c.AITimeoutSeconds <= 0 {
		c.AITimeoutSeconds = 30
	}
	if c.SearchTimeoutSeconds <= 0 {
		c.SearchTimeoutSeconds = 15
	}
	if c.SearchRatePerSecond <= 0 {
		c.SearchRatePerSecond = 5
	}
	if c.BatchWorkers <= 0 {
		c.BatchWorkers = 1
	}
	if c.QueryLimit <= 0 {
		c.QueryLimit = 12
	}
	return nil
}

// EnsureDirs 确保数据与日志目录存在
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.DataDir, c.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建目录失败 %s: %w", dir, err)
		}
	}
	return nil
}

// AITimeout AI 调用超时
func (c *Config) AITimeout() time.Duration {
	return time.Duration(c.AITimeoutSeconds) * time.Second
}

// SearchTimeout 单次素材请求超时
func (c *Config) SearchTimeout() time.Duration {
	return time.Duration(c.SearchTimeoutSeconds) * time.Second
}

// AIKey 返回指定 AI 提供商的密钥
func (c *Config) AIKey(provider string) string {
	switch strings.ToLower(provider) {
	case ProviderGoogle:
		return c.GoogleAPIKey
	case ProviderAnthropic:
		return c.AnthropicAPIKey
	case ProviderOpenAI:
		return c.OpenAIAPIKey
	}
	return ""
}

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvBool 获取布尔类型环境变量
func getEnvBool(key string, defaultValue bool) bool {
	value := strings.ToLower(os.Getenv(key))
	if value == "" {
		return defaultValue
	}

	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt 获取整数类型环境变量，无法解析时返回默认值
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// getEnvFloat 获取浮点类型环境变量
func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}
