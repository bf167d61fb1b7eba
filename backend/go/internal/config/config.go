package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// 环境变量覆盖项。
const (
	EnvOllamaBaseURL = "OLLAMA_BASE_URL"
	EnvOllamaModel   = "OLLAMA_MODEL"
	EnvDataPath      = "DOCSEARCH_DATA_PATH"
	EnvHTTPAddress   = "DOCSEARCH_HTTP_ADDRESS"
)

// AppInfo 对应 'app' 部分，包含应用程序的基本信息。
type AppInfo struct {
	Name        string `yaml:"name"`        // 应用程序名称
	Version     string `yaml:"version"`     // 应用程序版本
	Environment string `yaml:"environment"` // 运行环境 (例如: "development", "production")
}

// LoggerConfig 定义了日志记录器的配置。
type LoggerConfig struct {
	Level string `yaml:"level"` // 日志级别 (例如: "info", "debug", "warn", "error")
}

// HTTPConfig 定义了 HTTP 服务的配置。
type HTTPConfig struct {
	Address         string   `yaml:"address"`         // 监听地址 (例如: ":8000")
	CORSOrigins     []string `yaml:"corsOrigins"`     // 允许跨域访问的来源
	ShutdownTimeout string   `yaml:"shutdownTimeout"` // 优雅关闭的超时时间，例如 "10s"
	MaxUploadMB     int64    `yaml:"maxUploadMB"`     // 上传请求体大小上限 (MB)，也作为 multipart 内存缓存上限
}

// ChunkerConfig 定义了文本分块的配置。
type ChunkerConfig struct {
	LongParagraphThreshold int `yaml:"longParagraphThreshold"` // 超过该长度的段落会被按词重新切分，<0 表示关闭
	TargetChunkSize        int `yaml:"targetChunkSize"`        // 重新切分时每个子块的目标长度
}

// SearchConfig 定义了检索的配置。
type SearchConfig struct {
	Threshold   float64 `yaml:"threshold"`   // 分数小于等于该值的结果会被丢弃
	BonusScheme string  `yaml:"bonusScheme"` // 加分方案: "any_all" 或 "phrase"
	DefaultTopK int     `yaml:"defaultTopK"` // 默认返回的结果数量
}

// IngestConfig 定义了文档上传的限制。
type IngestConfig struct {
	MinFiles int `yaml:"minFiles"` // 单次上传的最少文件数
	MaxFiles int `yaml:"maxFiles"` // 单次上传的最多文件数
}

// RedisConfig 定义了 Redis 数据库的连接配置。
type RedisConfig struct {
	Address  string `yaml:"address"`  // Redis 服务器地址 (例如: "localhost:6379")
	Password string `yaml:"password"` // Redis 密码
	DB       int    `yaml:"db"`       // Redis 数据库编号
	Key      string `yaml:"key"`      // 快照所在的键
}

// StoreConfig 定义了索引快照的持久化方式。
type StoreConfig struct {
	Type  string      `yaml:"type"`  // "file"、"redis" 或 "none"
	Path  string      `yaml:"path"`  // type 为 file 时的 JSON 文件路径
	Redis RedisConfig `yaml:"redis"` // type 为 redis 时的连接配置
}

// OllamaConfig 包含了 Ollama 模型的配置。
type OllamaConfig struct {
	BaseURL string `yaml:"baseURL"` // Ollama 服务地址
	Model   string `yaml:"model"`   // 模型名称
	Timeout string `yaml:"timeout"` // 单次生成的超时时间，例如 "500s"
}

// LLMConfig 包含了 LLM 提供商的配置。
type LLMConfig struct {
	Provider string       `yaml:"provider"` // 目前只支持 "ollama"
	Ollama   OllamaConfig `yaml:"ollama"`   // Ollama 配置
}

// MiddlewareConfig 包含所有中间件的配置。
type MiddlewareConfig struct {
	RateLimiter    RateLimiterConfig    `yaml:"rateLimiter"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker"`
}

// RateLimiterConfig 定义了按客户端限流的配置。
type RateLimiterConfig struct {
	Enabled     bool              `yaml:"enabled"`
	Algorithm   string            `yaml:"algorithm"` // 支持: "slidingLog", "fixedWindow", "tokenBucket"
	FixedWindow FixedWindowConfig `yaml:"fixedWindow"`
	SlidingLog  SlidingLogConfig  `yaml:"slidingLog"`
	TokenBucket TokenBucketConfig `yaml:"tokenBucket"`
	MaxClients  int               `yaml:"maxClients"` // 同时跟踪的客户端数量上限
	ClientTTL   string            `yaml:"clientTTL"`  // 客户端空闲多久后被遗忘，例如 "10m"
}

// FixedWindowConfig 定义了固定窗口计数器算法的配置。
type FixedWindowConfig struct {
	Limit  int    `yaml:"limit"`
	Window string `yaml:"window"` // 例如: "1m", "30s"
}

// SlidingLogConfig 定义了滑动窗口日志算法的配置。
type SlidingLogConfig struct {
	Limit  int    `yaml:"limit"`
	Window string `yaml:"window"`
}

// TokenBucketConfig 定义了令牌桶算法的配置。
type TokenBucketConfig struct {
	Rate     float64 `yaml:"rate"` // 每秒速率
	Capacity int     `yaml:"capacity"`
}

// CircuitBreakerConfig 定义了熔断器的配置。
type CircuitBreakerConfig struct {
	Enabled          bool   `yaml:"enabled"`
	FailureThreshold uint32 `yaml:"failureThreshold"`
	SuccessThreshold uint32 `yaml:"successThreshold"`
	Timeout          string `yaml:"timeout"` // 例如: "30s"
}

// AppConfig 是整个 YAML 文件的根结构，包含了应用程序的所有配置。
type AppConfig struct {
	App        AppInfo          `yaml:"app"`        // 应用程序信息
	Logger     LoggerConfig     `yaml:"logger"`     // 日志记录器配置
	HTTP       HTTPConfig       `yaml:"http"`       // HTTP 服务配置
	Chunker    ChunkerConfig    `yaml:"chunker"`    // 分块配置
	Search     SearchConfig     `yaml:"search"`     // 检索配置
	Ingest     IngestConfig     `yaml:"ingest"`     // 上传限制
	Store      StoreConfig      `yaml:"store"`      // 持久化配置
	LLM        LLMConfig        `yaml:"llm"`        // LLM 配置部分
	Middleware MiddlewareConfig `yaml:"middleware"` // 中间件配置
}

// Default 返回一份完整的默认配置。
func Default() *AppConfig {
	return &AppConfig{
		App: AppInfo{
			Name:        "docsearch",
			Version:     "1.0.0",
			Environment: "development",
		},
		Logger: LoggerConfig{Level: "info"},
		HTTP: HTTPConfig{
			Address:         ":8000",
			CORSOrigins:     []string{"http://localhost:3000", "http://frontend:3000"},
			ShutdownTimeout: "10s",
			MaxUploadMB:     32,
		},
		Chunker: ChunkerConfig{
			LongParagraphThreshold: 1000,
			TargetChunkSize:        500,
		},
		Search: SearchConfig{
			Threshold:   0.2,
			BonusScheme: "any_all",
			DefaultTopK: 5,
		},
		Ingest: IngestConfig{MinFiles: 3, MaxFiles: 10},
		Store: StoreConfig{
			Type: "file",
			Path: "data/documents_data.json",
			Redis: RedisConfig{
				Address: "localhost:6379",
				Key:     "docsearch:snapshot",
			},
		},
		LLM: LLMConfig{
			Provider: "ollama",
			Ollama: OllamaConfig{
				BaseURL: "http://ollama:11434",
				Model:   "tinyllama:1.1b",
				Timeout: "500s",
			},
		},
		Middleware: MiddlewareConfig{
			RateLimiter: RateLimiterConfig{
				Enabled:     true,
				Algorithm:   "slidingLog",
				SlidingLog:  SlidingLogConfig{Limit: 3, Window: "1m"},
				FixedWindow: FixedWindowConfig{Limit: 3, Window: "1m"},
				TokenBucket: TokenBucketConfig{Rate: 0.05, Capacity: 3},
				MaxClients:  10000,
				ClientTTL:   "10m",
			},
			CircuitBreaker: CircuitBreakerConfig{
				Enabled:          true,
				FailureThreshold: 3,
				SuccessThreshold: 1,
				Timeout:          "30s",
			},
		},
	}
}

// LoadConfig 函数从指定路径加载并解析 YAML 配置文件。
//
// 文件中未出现的字段保留默认值；文件不存在时直接使用默认配置。
// 最后应用环境变量覆盖并校验结果。
func LoadConfig(path string) (*AppConfig, error) {
	cfg := Default()

	if path != "" {
		yamlFile, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// 使用默认配置
		case err != nil:
			return nil, fmt.Errorf("无法读取 YAML 文件 '%s': %w", path, err)
		default:
			if err := yaml.Unmarshal(yamlFile, cfg); err != nil {
				return nil, fmt.Errorf("解析 YAML 文件失败: %w", err)
			}
		}
	}

	cfg.applyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv 使用环境变量覆盖配置，lookup 通常为 os.LookupEnv。
func (c *AppConfig) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvOllamaBaseURL); ok && strings.TrimSpace(v) != "" {
		c.LLM.Ollama.BaseURL = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvOllamaModel); ok && strings.TrimSpace(v) != "" {
		c.LLM.Ollama.Model = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvDataPath); ok && strings.TrimSpace(v) != "" {
		c.Store.Path = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvHTTPAddress); ok && strings.TrimSpace(v) != "" {
		c.HTTP.Address = strings.TrimSpace(v)
	}
}

// Validate 检查配置中的取值是否合法。
func (c *AppConfig) Validate() error {
	if c.Ingest.MinFiles < 1 || c.Ingest.MaxFiles < c.Ingest.MinFiles {
		return fmt.Errorf("ingest 文件数量范围无效: %d-%d", c.Ingest.MinFiles, c.Ingest.MaxFiles)
	}
	if c.Search.Threshold < 0 || c.Search.Threshold >= 1 {
		return fmt.Errorf("search.threshold 必须在 [0, 1) 之间: %v", c.Search.Threshold)
	}
	if c.Search.DefaultTopK <= 0 {
		return fmt.Errorf("search.defaultTopK 必须为正数: %d", c.Search.DefaultTopK)
	}
	switch c.Store.Type {
	case "file":
		if c.Store.Path == "" {
			return errors.New("store.path 不能为空")
		}
	case "redis", "none":
	default:
		return fmt.Errorf("未知的 store.type: %s", c.Store.Type)
	}
	if c.LLM.Provider != "ollama" {
		return fmt.Errorf("不支持的 LLM 提供商: %s", c.LLM.Provider)
	}
	durations := map[string]string{
		"http.shutdownTimeout":                      c.HTTP.ShutdownTimeout,
		"llm.ollama.timeout":                        c.LLM.Ollama.Timeout,
		"middleware.circuitBreaker.timeout":         c.Middleware.CircuitBreaker.Timeout,
		"middleware.rateLimiter.clientTTL":          c.Middleware.RateLimiter.ClientTTL,
		"middleware.rateLimiter.slidingLog.window":  c.Middleware.RateLimiter.SlidingLog.Window,
		"middleware.rateLimiter.fixedWindow.window": c.Middleware.RateLimiter.FixedWindow.Window,
	}
	for name, value := range durations {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("%s 不是合法的时间间隔: %w", name, err)
		}
	}
	return nil
}

// Duration 解析时间间隔字符串，为空或非法时返回 fallback。
func Duration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
