package libretranslate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/nerdneilsfield/docx-translator/pkg/providers"
)

// Config LibreTranslate配置
type Config struct {
	providers.BaseConfig
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	cfg := Config{
		BaseConfig: providers.DefaultConfig(),
	}
	cfg.APIEndpoint = "http://localhost:5009/translate"
	return cfg
}

// Provider LibreTranslate提供商
type Provider struct {
	config     Config
	httpClient *http.Client
}

// New 创建新的LibreTranslate提供商
func New(config Config) *Provider {
	if config.APIEndpoint == "" {
		config.APIEndpoint = "http://localhost:5009/translate"
	}

	return &Provider{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// GetName 获取提供商名称
func (p *Provider) GetName() string {
	return "libretranslate"
}

// TranslateBatch 翻译一批文本。
// 单次请求，不含重试；译文条目数或顺序与请求不一致视为错误。
func (p *Provider) TranslateBatch(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error) {
	req := translateRequest{
		Q:      texts,
		Source: sourceLang,
		Target: targetLang,
		Format: "text",
	}
	if p.config.APIKey != "" {
		req.APIKey = p.config.APIKey
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.config.APIEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range p.config.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(resp.Body)

		var apiErr apiError
		if json.Unmarshal(errBody, &apiErr) == nil && apiErr.ErrorMsg != "" {
			return nil, providers.NewError(resp.Status, apiErr.ErrorMsg)
		}
		return nil, fmt.Errorf("API error: %s", resp.Status)
	}

	var transResp translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&transResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	translated, err := transResp.normalize(len(texts))
	if err != nil {
		return nil, err
	}

	return translated, nil
}

// translateRequest LibreTranslate翻译请求
type translateRequest struct {
	Q      []string `json:"q"`
	Source string   `json:"source"`
	Target string   `json:"target"`
	Format string   `json:"format"`
	APIKey string   `json:"api_key,omitempty"`
}

// translateResponse LibreTranslate翻译响应。
// 不同实例对批量请求返回 "translatedText" 的形式不一：
// 数组（批量）或字符串（单条），这里统一归一化为数组。
type translateResponse struct {
	TranslatedText json.RawMessage `json:"translatedText"`
}

// normalize 把响应归一化为与请求等长的译文数组
func (r *translateResponse) normalize(want int) ([]string, error) {
	if len(r.TranslatedText) == 0 {
		return nil, fmt.Errorf("unexpected response shape: missing translatedText")
	}

	var list []string
	if err := json.Unmarshal(r.TranslatedText, &list); err == nil {
		if len(list) != want {
			return nil, fmt.Errorf("got %d translations for %d texts", len(list), want)
		}
		return list, nil
	}

	var single string
	if err := json.Unmarshal(r.TranslatedText, &single); err == nil && want == 1 {
		return []string{single}, nil
	}

	return nil, fmt.Errorf("unexpected response shape: %s", string(r.TranslatedText))
}

// apiError API错误
type apiError struct {
	ErrorMsg string `json:"error"`
}
