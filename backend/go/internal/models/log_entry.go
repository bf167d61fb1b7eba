package models

// RequestInfo 存储了关于一次 HTTP 请求的上下文信息，由请求日志中间件填充。
type RequestInfo struct {
	Method    string `json:"method"`
	Path      string `json:"path"`
	Query     string `json:"query,omitempty"`
	ClientIP  string `json:"client_ip"`
	UserAgent string `json:"user_agent,omitempty"`
	Status    int    `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
	BodyBytes int    `json:"body_bytes"`
}

// ErrorInfo 存储了关于错误的结构化信息。
type ErrorInfo struct {
	Message    string `json:"message"`
	Type       string `json:"type,omitempty"`        // 错误的类型，例如 "extraction_error", "persistence_error"
	StatusCode int    `json:"status_code,omitempty"` // 相关的HTTP状态码
}

// NewErrorInfo 从 error 构造 ErrorInfo。
func NewErrorInfo(err error, errType string) ErrorInfo {
	info := ErrorInfo{Type: errType}
	if err != nil {
		info.Message = err.Error()
	}
	return info
}
