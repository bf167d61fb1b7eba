package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	olla "github.com/ollama/ollama/api"

	"docsearch/backend/go/internal/rag_service/rag/interfaces"
)

// DefaultOptions 是生成请求的采样参数，偏向简短、确定的回答。
var DefaultOptions = map[string]any{
	"temperature":    0.1,
	"num_predict":    80,
	"top_k":          20,
	"top_p":          0.9,
	"repeat_penalty": 1.1,
}

// StatusError 表示 Ollama 服务可以连通，但返回了非成功的 HTTP 状态码。
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Ollama responded with status %d", e.Code)
}

// StatusCode 返回服务端响应的 HTTP 状态码。
func (e *StatusError) StatusCode() int { return e.Code }

// Ollama 是一个用于 Ollama API 的 LLM 客户端。
type Ollama struct {
	client  *olla.Client // Ollama 客户端实例。
	model   string       // 要使用的模型名称。
	baseURL string
	timeout time.Duration // 单次生成的超时时间，<=0 表示只依赖调用方的 ctx。
}

// NewOllama 创建一个新的 Ollama 客户端。
//
// 参数:
//
//	model: 要使用的模型名称。
//	baseURL: Ollama 服务的基准 URL。如果为空，则默认为 "http://localhost:11434"。
//	timeout: 单次生成的超时时间。
//	hc: 发送请求使用的 HTTP 客户端，为 nil 时使用 http.DefaultClient。
func NewOllama(model, baseURL string, timeout time.Duration, hc *http.Client) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		return nil, fmt.Errorf("ollama: model name is required")
	}

	parsedURL, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", baseURL)
	}
	if hc == nil {
		hc = http.DefaultClient
	}

	return &Ollama{
		client:  olla.NewClient(parsedURL, hc),
		model:   model,
		baseURL: parsedURL.String(),
		timeout: timeout,
	}, nil
}

// Model 返回默认模型名称。
func (o *Ollama) Model() string { return o.model }

// BaseURL 返回 Ollama 服务地址。
func (o *Ollama) BaseURL() string { return o.baseURL }

// Generate 以非流式方式生成回答。
func (o *Ollama) Generate(ctx context.Context, prompt string) (string, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	stream := false
	var sb strings.Builder
	err := o.client.Generate(ctx, &olla.GenerateRequest{
		Model:   o.model,
		Prompt:  prompt,
		Stream:  &stream,
		Options: DefaultOptions,
	}, func(resp olla.GenerateResponse) error {
		sb.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate content with ollama: %w", err)
	}
	return sb.String(), nil
}

// ListModels 返回 Ollama 上已安装的模型名称。
func (o *Ollama) ListModels(ctx context.Context) ([]string, error) {
	resp, err := o.client.List(ctx)
	if err != nil {
		var se olla.StatusError
		if errors.As(err, &se) {
			return nil, &StatusError{Code: se.StatusCode}
		}
		return nil, fmt.Errorf("list models: %w", err)
	}
	models := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		models = append(models, m.Name)
	}
	return models, nil
}

// compile-time check to ensure Ollama implements the LLM interface
var _ interfaces.LLM = (*Ollama)(nil)
