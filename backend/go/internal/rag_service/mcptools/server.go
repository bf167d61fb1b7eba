package mcptools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"docsearch/backend/go/internal/rag_service/service"
)

// Version 是 MCP 服务的版本号
var Version = "1.0.0"

// Handler 把文档检索服务暴露为 MCP 工具。
type Handler struct {
	svc *service.Service
}

// NewHandler 创建一个新的 Handler。
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// NewServer 创建 MCP 服务并注册全部工具。
func NewServer(name string, svc *service.Service) *server.MCPServer {
	h := NewHandler(svc)

	s := server.NewMCPServer(
		name,
		Version,
		server.WithToolCapabilities(false),
	)

	s.AddTool(mcp.NewTool(
		"search_documents",
		mcp.WithDescription("Rank indexed document chunks against keywords and return the best matches with their scores."),
		mcp.WithString("query",
			mcp.Description("Keywords to look for (at least 2 characters)"),
			mcp.Required(),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results (default 5)"),
		),
	), h.HandleSearch)

	s.AddTool(mcp.NewTool(
		"ask_documents",
		mcp.WithDescription("Answer a question using only the indexed documents, with citations."),
		mcp.WithString("question",
			mcp.Description("The question to answer (at least 3 characters)"),
			mcp.Required(),
		),
	), h.HandleAsk)

	s.AddTool(mcp.NewTool(
		"index_stats",
		mcp.WithDescription("Report how many documents and chunks are indexed and list document names."),
	), h.HandleStats)

	return s
}

// HandleSearch 处理 search_documents 工具调用。
func (h *Handler) HandleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := int(request.GetFloat("limit", 0))

	results, err := h.svc.Search(query, limit)
	if err != nil {
		return errorResult(err), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("No matching chunks found."), nil
	}

	var sb strings.Builder
	for i, r := range results {
		sb.WriteString(fmt.Sprintf("%d. [%s] (score %.3f)\n%s\n\n", i+1, r.DocumentName, r.Score, r.Text))
	}
	return mcp.NewToolResultText(strings.TrimRight(sb.String(), "\n")), nil
}

// HandleAsk 处理 ask_documents 工具调用。
func (h *Handler) HandleAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	answer, err := h.svc.Ask(ctx, question)
	if err != nil {
		return errorResult(err), nil
	}

	var sb strings.Builder
	sb.WriteString(answer.Answer)
	if len(answer.Citations) > 0 {
		sb.WriteString("\n\nSources:")
		for _, c := range answer.Citations {
			sb.WriteString("\n- ")
			sb.WriteString(c)
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// HandleStats 处理 index_stats 工具调用。
func (h *Handler) HandleStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st := h.svc.Stats()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Documents: %d\nChunks: %d", st.TotalDocuments, st.TotalChunks))
	for _, name := range st.Documents {
		sb.WriteString("\n- ")
		sb.WriteString(name)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// errorResult 将服务错误转换为工具错误结果，输入错误原样返回给调用方
func errorResult(err error) *mcp.CallToolResult {
	var inputErr *service.InputError
	if errors.As(err, &inputErr) {
		return mcp.NewToolResultError(inputErr.Message)
	}
	return mcp.NewToolResultError(fmt.Sprintf("Internal error: %v", err))
}
