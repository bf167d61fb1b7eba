package llm

import (
	"fmt"
	"net/http"
	"time"

	"docsearch/backend/go/internal/config"
)

// DefaultTimeout 是单次生成请求的默认超时时间。
const DefaultTimeout = 500 * time.Second

// NewClient 是一个工厂函数，根据提供的配置创建 LLM 客户端。
// hc 为发送请求使用的 HTTP 客户端，通常带有熔断器。
func NewClient(cfg config.LLMConfig, hc *http.Client) (*Ollama, error) {
	switch cfg.Provider {
	case "", "ollama":
		timeout := config.Duration(cfg.Ollama.Timeout, DefaultTimeout)
		return NewOllama(cfg.Ollama.Model, cfg.Ollama.BaseURL, timeout, hc)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
