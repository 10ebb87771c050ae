package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/text/language"
)

// Config 保存一次文档翻译运行的所有配置。
// 在入口处加载为显式的值对象并传入流水线，没有进程级可变状态。
type Config struct {
	// Provider 翻译提供商: "libretranslate" 或 "openai"
	Provider string `mapstructure:"provider"`

	// Endpoint 翻译服务地址
	Endpoint string `mapstructure:"endpoint"`

	// APIKey API密钥（LibreTranslate 实例可选，OpenAI 兼容端点必需）
	APIKey string `mapstructure:"api_key"`

	// Model OpenAI 兼容提供商使用的模型
	Model string `mapstructure:"model"`

	SourceLang string `mapstructure:"source_lang"`
	TargetLang string `mapstructure:"target_lang"`

	// MaxCharsPerBatch 单次请求的字符总预算
	MaxCharsPerBatch int `mapstructure:"max_chars_per_batch"`

	// MaxItemsPerBatch 单次请求的段落条数上限
	MaxItemsPerBatch int `mapstructure:"max_items_per_batch"`

	// RetryLimit 每批重试次数上限（不含首次尝试）
	RetryLimit int `mapstructure:"retry_limit"`

	// RequestTimeout 单次请求超时（秒）
	RequestTimeout int `mapstructure:"request_timeout"`

	// Concurrency 并行批次数，1 为严格串行
	Concurrency int `mapstructure:"concurrency"`

	Debug bool `mapstructure:"debug"`
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", "libretranslate")
	v.SetDefault("endpoint", "http://localhost:5009/translate")
	v.SetDefault("source_lang", "id")
	v.SetDefault("target_lang", "en")
	v.SetDefault("max_chars_per_batch", 20000)
	v.SetDefault("max_items_per_batch", 50)
	v.SetDefault("retry_limit", 4)
	v.SetDefault("request_timeout", 180)
	v.SetDefault("concurrency", 1)
	v.SetDefault("debug", false)
}

// Load 从文件加载配置。configPath 为空时在家目录和当前目录查找
// .docx-translator.yaml；环境变量（DOCX_TRANSLATOR_*）覆盖文件值。
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}

		v.AddConfigPath(home)
		v.AddConfigPath(".")
		v.SetConfigName(".docx-translator")
		v.SetConfigType("yaml")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("DOCX_TRANSLATOR")

	if err := v.ReadInConfig(); err != nil {
		// 默认路径下找不到配置文件时使用默认值；
		// 显式指定的文件读不到或解析失败则报错
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configPath != "" {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate 校验配置，在运行开始前把永久性的配置错误一次性暴露出来
func (c *Config) Validate() error {
	switch c.Provider {
	case "libretranslate", "openai":
	default:
		return fmt.Errorf("unsupported provider %q (expected libretranslate or openai)", c.Provider)
	}

	if c.Endpoint != "" {
		if _, err := url.ParseRequestURI(c.Endpoint); err != nil {
			return fmt.Errorf("invalid endpoint %q: %w", c.Endpoint, err)
		}
	}

	if c.MaxCharsPerBatch <= 0 {
		return fmt.Errorf("max_chars_per_batch must be positive, got %d", c.MaxCharsPerBatch)
	}
	if c.MaxItemsPerBatch <= 0 {
		return fmt.Errorf("max_items_per_batch must be positive, got %d", c.MaxItemsPerBatch)
	}
	if c.RetryLimit < 0 {
		return fmt.Errorf("retry_limit must not be negative, got %d", c.RetryLimit)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %d", c.RequestTimeout)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}

	return nil
}

// CheckLanguages 校验语言代码是否为合法的 BCP 47 标签。
// 语言是否受支持由翻译服务决定，这里只做格式检查，返回警告而非错误。
func (c *Config) CheckLanguages() []string {
	var warnings []string

	for _, lang := range []string{c.SourceLang, c.TargetLang} {
		if _, err := language.Parse(lang); err != nil {
			warnings = append(warnings, fmt.Sprintf("language code %q does not look like a valid BCP 47 tag", lang))
		}
	}

	return warnings
}

// Timeout 请求超时时间
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}
