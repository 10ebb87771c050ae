package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/docx-translator/internal/config"
	"github.com/nerdneilsfield/docx-translator/internal/document"
	"github.com/nerdneilsfield/docx-translator/internal/logger"
	"github.com/nerdneilsfield/docx-translator/internal/progress"
	"github.com/nerdneilsfield/docx-translator/pkg/providers"
	"github.com/nerdneilsfield/docx-translator/pkg/providers/libretranslate"
	openaiprovider "github.com/nerdneilsfield/docx-translator/pkg/providers/openai"
	"github.com/nerdneilsfield/docx-translator/pkg/translation"
)

var (
	// 命令行标志变量
	cfgFile       string
	providerName  string
	endpoint      string
	apiKey        string
	model         string
	sourceLang    string
	targetLang    string
	maxChars      int
	maxItems      int
	retryLimit    int
	timeoutSecs   int
	concurrency   int
	debugMode     bool
	dryRun        bool // 预演模式，只列出段落和批次规划，不发起网络请求
	listProviders bool
)

// NewRootCommand 创建根命令
func NewRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "docx-translator [flags] input.docx output.docx",
		Short: "DOCX 文档批量翻译工具",
		Long: `DOCX 文档批量翻译工具。抽取文档的段落和表格单元格文本，
按字符预算和条目上限打包成批次交给翻译服务，失败的批次经指数退避重试后
回退为原文，最后把译文按原始位置写回新文档，段落样式保持不变。

支持的翻译提供商:
  - libretranslate: LibreTranslate (开源，默认)
  - openai: OpenAI 兼容的聊天补全端点`,
		Version: fmt.Sprintf("%s (commit %s, built %s)", version, commit, buildDate),
		Args: func(cmd *cobra.Command, args []string) error {
			if listProviders {
				return nil
			}
			if dryRun {
				if len(args) < 1 {
					return fmt.Errorf("dry-run mode requires at least 1 file argument")
				}
				return nil
			}
			if len(args) != 2 {
				return fmt.Errorf("accepts 2 arg(s), received %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if listProviders {
				fmt.Println("支持的翻译提供商:")
				for _, p := range []string{"libretranslate", "openai"} {
					fmt.Printf("  - %s\n", p)
				}
				return nil
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("加载配置失败: %w", err)
			}

			log := logger.New(cfg.Debug)
			defer func() {
				_ = log.Sync()
			}()

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("配置无效: %w", err)
			}
			for _, warning := range cfg.CheckLanguages() {
				color.Yellow("警告: %s", warning)
			}

			if dryRun {
				return runDryRun(args[0], cfg, log)
			}

			return runTranslate(cmd.Context(), args[0], args[1], cfg, log)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().StringVar(&providerName, "provider", "", "翻译提供商 (libretranslate, openai)")
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "翻译服务地址")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "API 密钥")
	rootCmd.PersistentFlags().StringVar(&model, "model", "", "OpenAI 兼容提供商的模型")
	rootCmd.PersistentFlags().StringVarP(&sourceLang, "source", "s", "", "源语言代码")
	rootCmd.PersistentFlags().StringVarP(&targetLang, "target", "t", "", "目标语言代码")
	rootCmd.PersistentFlags().IntVar(&maxChars, "max-chars", 0, "单批字符总预算")
	rootCmd.PersistentFlags().IntVar(&maxItems, "max-items", 0, "单批条目上限")
	rootCmd.PersistentFlags().IntVar(&retryLimit, "retry-limit", -1, "每批重试次数上限")
	rootCmd.PersistentFlags().IntVar(&timeoutSecs, "timeout", 0, "单次请求超时（秒）")
	rootCmd.PersistentFlags().IntVar(&concurrency, "concurrency", 0, "并行批次数，1 为严格串行")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "调试模式")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "只列出段落和批次规划，不翻译")
	rootCmd.PersistentFlags().BoolVar(&listProviders, "list-providers", false, "列出支持的翻译提供商")

	return rootCmd
}

// loadConfig 加载配置文件并应用命令行标志覆盖
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	if providerName != "" {
		cfg.Provider = providerName
	}
	if endpoint != "" {
		cfg.Endpoint = endpoint
	}
	if apiKey != "" {
		cfg.APIKey = apiKey
	}
	if model != "" {
		cfg.Model = model
	}
	if sourceLang != "" {
		cfg.SourceLang = sourceLang
	}
	if targetLang != "" {
		cfg.TargetLang = targetLang
	}
	if maxChars > 0 {
		cfg.MaxCharsPerBatch = maxChars
	}
	if maxItems > 0 {
		cfg.MaxItemsPerBatch = maxItems
	}
	if retryLimit >= 0 {
		cfg.RetryLimit = retryLimit
	}
	if timeoutSecs > 0 {
		cfg.RequestTimeout = timeoutSecs
	}
	if concurrency > 0 {
		cfg.Concurrency = concurrency
	}
	if cmd.Flags().Changed("debug") {
		cfg.Debug = debugMode
	}

	return cfg, nil
}

// newProvider 根据配置创建翻译提供商
func newProvider(cfg *config.Config) (providers.BatchProvider, error) {
	switch cfg.Provider {
	case "libretranslate":
		providerCfg := libretranslate.DefaultConfig()
		if cfg.Endpoint != "" {
			providerCfg.APIEndpoint = cfg.Endpoint
		}
		providerCfg.APIKey = cfg.APIKey
		providerCfg.Timeout = cfg.Timeout()
		return libretranslate.New(providerCfg), nil
	case "openai":
		providerCfg := openaiprovider.DefaultConfig()
		providerCfg.APIEndpoint = cfg.Endpoint
		providerCfg.APIKey = cfg.APIKey
		providerCfg.Timeout = cfg.Timeout()
		if cfg.Model != "" {
			providerCfg.Model = cfg.Model
		}
		return openaiprovider.New(providerCfg), nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.Provider)
	}
}

// runTranslate 执行一次完整的文档翻译
func runTranslate(ctx context.Context, inputPath, outputPath string, cfg *config.Config, log *zap.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}

	provider, err := newProvider(cfg)
	if err != nil {
		return err
	}

	// 文档结构错误是致命的，立即向调用方暴露
	file, err := document.Open(inputPath)
	if err != nil {
		return err
	}

	segments := file.Segments()
	if len(segments) == 0 {
		color.Yellow("文档中没有可翻译的文本，原样复制到输出")
	}

	subTotal := estimateSubSegments(segments, cfg.MaxCharsPerBatch)
	bar, err := progress.NewBar(subTotal)
	if err != nil {
		return err
	}

	service := translation.NewService(translation.Config{
		SourceLang:       cfg.SourceLang,
		TargetLang:       cfg.TargetLang,
		MaxCharsPerBatch: cfg.MaxCharsPerBatch,
		MaxItemsPerBatch: cfg.MaxItemsPerBatch,
		RetryLimit:       cfg.RetryLimit,
		RequestTimeout:   cfg.Timeout(),
		Concurrency:      cfg.Concurrency,
	}, provider,
		translation.WithLogger(log),
		translation.WithProgressObserver(bar),
	)

	translated, summary := service.Translate(ctx, segments)
	bar.Stop()

	// 无论多少批次回退，运行都完成并产出输出文档
	if err := file.WriteTranslated(outputPath, translated); err != nil {
		return fmt.Errorf("写出文档失败: %w", err)
	}

	progress.PrintSummary(os.Stdout, summary)
	if summary.FallbackSegments > 0 {
		color.Yellow("%d 个段落翻译失败，保留了原文", summary.FallbackSegments)
	}
	fmt.Printf("完成。输出: %s\n", outputPath)

	return nil
}

// runDryRun 列出段落和批次规划，不发起网络请求
func runDryRun(inputPath string, cfg *config.Config, log *zap.Logger) error {
	file, err := document.Open(inputPath)
	if err != nil {
		return err
	}

	segments := file.Segments()
	splitter := translation.NewSplitter(cfg.MaxCharsPerBatch)
	batcher := translation.NewBatcher(cfg.MaxCharsPerBatch, cfg.MaxItemsPerBatch)

	var subs []translation.SubSegment
	for _, seg := range segments {
		label := seg.OriginID
		if seg.StyleTag != "" {
			label = fmt.Sprintf("%s [%s]", seg.OriginID, seg.StyleTag)
		}

		// 与实际运行一致，空白段落不参与批次规划
		if isBlank(seg.Text) {
			fmt.Printf("%s: 空白，跳过\n", label)
			continue
		}

		pieces := splitter.Split(seg)
		subs = append(subs, pieces...)

		if len(pieces) > 1 {
			color.Cyan("%s: %d 字符，拆为 %d 片", label, len([]rune(seg.Text)), len(pieces))
		} else {
			fmt.Printf("%s: %d 字符\n", label, len([]rune(seg.Text)))
		}
	}

	batches := batcher.BuildBatches(subs)
	fmt.Printf("\n共 %d 个段落，%d 个片段，规划为 %d 个批次\n", len(segments), len(subs), len(batches))
	for _, b := range batches {
		fmt.Printf("  批次 %d: %d 片段，%d 字符\n", b.Index, len(b.Items), b.TotalChars)
	}

	log.Debug("dry-run 完成",
		zap.Int("segments", len(segments)),
		zap.Int("batches", len(batches)),
		zap.Duration("timeout", time.Duration(cfg.RequestTimeout)*time.Second))

	return nil
}

// estimateSubSegments 预估拆分后的片段总数，用于进度条总量
func estimateSubSegments(segments []translation.Segment, maxChars int) int {
	splitter := translation.NewSplitter(maxChars)
	total := 0
	for _, seg := range segments {
		if isBlank(seg.Text) {
			continue
		}
		total += len(splitter.Split(seg))
	}
	if total == 0 {
		total = 1 // pterm 不接受总量为 0 的进度条
	}
	return total
}

// isBlank 判断文本是否全为空白
func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
