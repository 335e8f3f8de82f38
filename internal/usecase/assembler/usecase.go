// Package assembler is the entry point callers use: it clears blocking
// overlays, picks the best value for every field across the extraction
// paths and returns validated records with provenance.
package assembler

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"claim-extractor/internal/application/port/input"
	"claim-extractor/internal/application/port/output"
	"claim-extractor/internal/domain/signature"
	"claim-extractor/internal/usecase/obstruction"
	"claim-extractor/internal/usecase/reportsource"
	"claim-extractor/internal/usecase/scoring"
	"claim-extractor/internal/usecase/selector"

	"github.com/google/uuid"
)

var _ input.ClaimExtractor = (*UseCase)(nil)

type Config struct {
	Fields   []FieldSpec
	ItemRows []string
	// ScreenshotDir receives a capture whenever an overlay stays blocked.
	// Empty disables it.
	ScreenshotDir string
}

func DefaultConfig() Config {
	return Config{
		Fields:   DefaultClaimFields,
		ItemRows: DefaultItemRows.Patterns,
	}
}

type UseCase struct {
	doc       output.DocumentDriver
	resolver  *selector.Resolver
	clearer   *obstruction.Clearer
	sources   *reportsource.Resolver
	scorer    *scoring.Scorer
	validator *scoring.Validator
	table     *signature.Table
	logger    output.LoggerPort
	cfg       Config
	newRunID  func() string
}

func New(
	doc output.DocumentDriver,
	resolver *selector.Resolver,
	clearer *obstruction.Clearer,
	sources *reportsource.Resolver,
	scorer *scoring.Scorer,
	validator *scoring.Validator,
	table *signature.Table,
	logger output.LoggerPort,
	cfg Config,
) *UseCase {
	if len(cfg.Fields) == 0 {
		cfg.Fields = DefaultClaimFields
	}
	if len(cfg.ItemRows) == 0 {
		cfg.ItemRows = DefaultItemRows.Patterns
	}
	if table == nil {
		table = signature.Default()
	}
	return &UseCase{
		doc:       doc,
		resolver:  resolver,
		clearer:   clearer,
		sources:   sources,
		scorer:    scorer,
		validator: validator,
		table:     table,
		logger:    logger,
		cfg:       cfg,
		newRunID:  uuid.NewString,
	}
}

// ClearBlockingObstruction runs one clearing attempt and reports whether
// the page is free of known overlays afterwards.
func (uc *UseCase) ClearBlockingObstruction(ctx context.Context) bool {
	return uc.clear(ctx, uc.logger, uc.newRunID())
}

func (uc *UseCase) clear(ctx context.Context, log output.LoggerPort, runID string) bool {
	report := uc.clearer.Clear(ctx)
	log.Info("Obstruction check",
		"state", report.State.String(),
		"signature", report.Signature,
		"strategy", report.Strategy,
		"cycles", report.Cycles,
	)
	if report.Clear() {
		return true
	}

	for _, line := range report.Trace {
		log.Debug("Obstruction trace", "step", line)
	}
	if uc.cfg.ScreenshotDir != "" {
		path := filepath.Join(uc.cfg.ScreenshotDir, fmt.Sprintf("blocked_%s_%s.jpg", time.Now().Format("20060102_150405"), runID))
		if err := uc.doc.Screenshot(ctx, path); err != nil {
			log.Warn("Blocked screenshot failed", "error", err)
		} else {
			log.Info("Blocked screenshot saved", "path", path)
		}
	}
	return false
}

func (uc *UseCase) run(operation string) (output.LoggerPort, string) {
	runID := uc.newRunID()
	return uc.logger.WithFields(map[string]any{
		"run_id":    runID,
		"operation": operation,
	}), runID
}
