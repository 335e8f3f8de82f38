package di

import (
	"context"
	"fmt"
	"strings"
	"time"

	"claim-extractor/internal/application/port/input"
	"claim-extractor/internal/application/port/output"
	"claim-extractor/internal/domain/entity"
	"claim-extractor/internal/domain/signature"
	"claim-extractor/internal/infrastructure/browser/rod"
	"claim-extractor/internal/infrastructure/llm/openrouter"
	"claim-extractor/internal/infrastructure/logger"
	"claim-extractor/internal/usecase/assembler"
	"claim-extractor/internal/usecase/extract"
	"claim-extractor/internal/usecase/obstruction"
	"claim-extractor/internal/usecase/reportsource"
	"claim-extractor/internal/usecase/scoring"
	"claim-extractor/internal/usecase/selector"
)

type Container struct {
	Browser   *rod.BrowserAdapter
	Logger    output.LoggerPort
	Extractor input.ClaimExtractor
}

type Config struct {
	// Name labels the log file of this session.
	Name       string
	LogDir     string
	LogLevel   string
	LogConsole bool

	BrowserHeadless bool
	BrowserTimeout  time.Duration
	DownloadDir     string
	ScreenshotDir   string

	SignaturesFile string
	ReportOrder    []entity.ReportSourceKind
	ExportCacheTTL time.Duration
	ObstructionMax int
	SettleDelay    time.Duration
	CheckDigit     bool

	// Reviewer is used only when an API key is set.
	OpenRouterAPIKey string
	OpenRouterModel  string
}

func NewContainer(ctx context.Context, cfg Config) (*Container, error) {
	logCfg := logger.DefaultConfig()
	if cfg.LogDir != "" {
		logCfg.Dir = cfg.LogDir
	}
	if cfg.LogLevel != "" {
		logCfg.Level = cfg.LogLevel
	}
	logCfg.Console = cfg.LogConsole

	log, err := logger.NewLoggerAdapter(cfg.Name, logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	browserCfg := rod.DefaultConfig()
	browserCfg.Headless = cfg.BrowserHeadless
	if cfg.BrowserTimeout > 0 {
		browserCfg.Timeout = cfg.BrowserTimeout
	}
	browserCfg.DownloadDir = cfg.DownloadDir
	browser, err := rod.NewBrowserAdapter(ctx, browserCfg)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to create browser: %w", err)
	}

	extractor, err := NewClaimExtractor(browser.Document(), log, cfg)
	if err != nil {
		browser.Close()
		log.Close()
		return nil, err
	}

	return &Container{
		Browser:   browser,
		Logger:    log,
		Extractor: extractor,
	}, nil
}

// NewClaimExtractor wires every extraction component against doc.
func NewClaimExtractor(doc output.DocumentDriver, log output.LoggerPort, cfg Config) (*assembler.UseCase, error) {
	table := signature.Default()
	if cfg.SignaturesFile != "" {
		loaded, err := signature.Load(cfg.SignaturesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load signatures: %w", err)
		}
		table = loaded
		log.Info("Signature table loaded", "file", cfg.SignaturesFile, "version", table.Version)
	}

	clearCfg := obstruction.DefaultConfig()
	if cfg.ObstructionMax > 0 {
		clearCfg.MaxCycles = cfg.ObstructionMax
	}
	if cfg.SettleDelay > 0 {
		clearCfg.Settle = cfg.SettleDelay
	}

	sources := reportsource.New(
		reportsource.Sources(table, extract.NewFetcher(cfg.ExportCacheTTL), extract.DefaultFrameConfig()),
		log,
		reportsource.Config{Order: cfg.ReportOrder},
	)

	scorer := scoring.NewScorer(table, scoring.DefaultConfig())
	if cfg.OpenRouterAPIKey != "" {
		llmCfg := openrouter.DefaultConfig(cfg.OpenRouterAPIKey, cfg.OpenRouterModel)
		llmCfg.Logger = log
		scorer = scorer.WithReviewer(openrouter.NewOpenRouterAdapter(llmCfg), log)
		log.Info("Candidate reviewer enabled", "model", cfg.OpenRouterModel)
	}

	asmCfg := assembler.DefaultConfig()
	asmCfg.ScreenshotDir = cfg.ScreenshotDir

	return assembler.New(
		doc,
		selector.New(doc, selector.DefaultConfig()),
		obstruction.New(doc, table, log, clearCfg),
		sources,
		scorer,
		scoring.NewValidator(scoring.ValidatorConfig{CheckDigit: cfg.CheckDigit}),
		table,
		log,
		asmCfg,
	), nil
}

// ParseReportOrder reads a comma-separated list of format names such as
// "spreadsheet,table,grid".
func ParseReportOrder(s string) ([]entity.ReportSourceKind, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var order []entity.ReportSourceKind
	for _, name := range strings.Split(s, ",") {
		kind, ok := entity.ParseReportSourceKind(strings.TrimSpace(name))
		if !ok {
			return nil, fmt.Errorf("unknown report format %q", name)
		}
		order = append(order, kind)
	}
	return order, nil
}

func (c *Container) Close() {
	if c.Browser != nil {
		c.Browser.Close()
	}
	if c.Logger != nil {
		c.Logger.Close()
	}
}
