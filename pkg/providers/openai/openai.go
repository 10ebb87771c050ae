package openai

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/nerdneilsfield/docx-translator/pkg/providers"
	openai "github.com/sashabaranov/go-openai"
)

// 批量片段标记。模型被要求原样保留标记，标记之间的每段文本独立翻译，
// 解析时据此恢复逐片段译文；标记丢失或数量不符按失败处理（由上层重试）。
const (
	segStartMarker = "@@SEG_START_%d@@"
	segEndMarker   = "@@SEG_END_%d@@"
)

var segPattern = regexp.MustCompile(`(?s)@@SEG_START_(\d+)@@\n(.*?)\n@@SEG_END_(\d+)@@`)

// Config OpenAI兼容提供商配置
type Config struct {
	providers.BaseConfig
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		BaseConfig:  providers.DefaultConfig(),
		Model:       "gpt-4o-mini",
		Temperature: 0.3,
	}
}

// Provider OpenAI兼容提供商。
// 聊天补全接口没有原生的"文本数组进、文本数组出"形式，
// 批次以分段标记包裹后合并成单个 prompt 发送，再从回复中解析回数组。
type Provider struct {
	config Config
	client *openai.Client
}

// New 创建新的OpenAI兼容提供商
func New(config Config) *Provider {
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.APIEndpoint != "" {
		// go-openai 的 API 后缀以斜杠开头，去掉结尾斜杠避免双斜杠
		clientConfig.BaseURL = strings.TrimSuffix(config.APIEndpoint, "/")
	}
	clientConfig.HTTPClient = &http.Client{
		Timeout: config.Timeout,
	}

	return &Provider{
		config: config,
		client: openai.NewClientWithConfig(clientConfig),
	}
}

// GetName 获取提供商名称
func (p *Provider) GetName() string {
	return "openai"
}

// TranslateBatch 翻译一批文本。单次请求，不含重试。
func (p *Provider) TranslateBatch(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error) {
	prompt := buildBatchPrompt(texts, sourceLang, targetLang)

	req := openai.ChatCompletionRequest{
		Model: p.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: p.config.Temperature,
	}
	if p.config.MaxTokens > 0 {
		req.MaxTokens = p.config.MaxTokens
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty completion response")
	}

	return parseBatchReply(resp.Choices[0].Message.Content, len(texts))
}

// buildBatchPrompt 把批内文本用分段标记合并为单个翻译 prompt
func buildBatchPrompt(texts []string, sourceLang, targetLang string) string {
	var builder strings.Builder

	builder.WriteString(fmt.Sprintf(
		"Translate the following text sections from %s to %s.\n", sourceLang, targetLang))
	builder.WriteString(`
CRITICAL: Section Markers
- The text contains markers like @@SEG_START_N@@ and @@SEG_END_N@@
- These markers MUST be preserved exactly as they appear
- Do NOT translate or modify these markers
- Translate each section between matching markers independently
- Do not merge, split, or reorder sections
- Return ONLY the marked sections with translated content, no explanations

`)

	for i, text := range texts {
		builder.WriteString(fmt.Sprintf(segStartMarker+"\n", i))
		builder.WriteString(text)
		builder.WriteString(fmt.Sprintf("\n"+segEndMarker+"\n", i))
	}

	return builder.String()
}

// parseBatchReply 从模型回复中按标记解析逐片段译文
func parseBatchReply(reply string, want int) ([]string, error) {
	matches := segPattern.FindAllStringSubmatch(reply, -1)
	if len(matches) != want {
		return nil, fmt.Errorf("got %d marked sections for %d texts", len(matches), want)
	}

	out := make([]string, want)
	seen := make(map[int]bool, want)
	for _, match := range matches {
		id, err := strconv.Atoi(match[1])
		if err != nil || id < 0 || id >= want {
			return nil, fmt.Errorf("invalid section marker id %q", match[1])
		}
		if match[1] != match[3] {
			return nil, fmt.Errorf("mismatched section markers %s/%s", match[1], match[3])
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate section marker id %d", id)
		}
		seen[id] = true
		out[id] = match[2]
	}

	return out, nil
}
