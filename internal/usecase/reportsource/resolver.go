// Package reportsource works out which presentation of a report the
// current page offers and dispatches to the matching extractor, falling
// back through the other formats that are also present.
package reportsource

import (
	"context"
	"fmt"

	"claim-extractor/internal/application/port/output"
	"claim-extractor/internal/domain/entity"
	"claim-extractor/internal/domain/signature"
	"claim-extractor/internal/usecase/extract"
)

// Source is one report format: a cheap presence check plus its extractor.
type Source interface {
	Present(ctx context.Context, doc output.DocumentDriver) (bool, error)
	Extract(ctx context.Context, doc output.DocumentDriver) ([]entity.ExtractionCandidate, error)
}

type Config struct {
	// Order decides which format wins when several are present.
	Order []entity.ReportSourceKind
}

func DefaultConfig() Config {
	return Config{Order: entity.DefaultSourceOrder}
}

// Sources builds the standard extractor for every format.
func Sources(table *signature.Table, fetcher *extract.Fetcher, frameCfg extract.FrameConfig) map[entity.ReportSourceKind]Source {
	grid := extract.NewGrid(table)
	tbl := extract.NewTable(table)
	frame := extract.NewFrame(frameCfg, grid, tbl)

	return map[entity.ReportSourceKind]Source{
		entity.SourceGrid:                grid,
		entity.SourceTable:               tbl,
		entity.SourceEmbeddedFrame:       extract.FrameSource{Frame: frame},
		entity.SourceNestedEmbeddedFrame: extract.FrameSource{Frame: frame, Nested: true},
		entity.SourceSpreadsheetExport:   extract.NewSpreadsheet(fetcher, table),
		entity.SourcePdfDocument:         extract.NewPdf(fetcher, table),
	}
}

type Resolver struct {
	sources map[entity.ReportSourceKind]Source
	logger  output.LoggerPort
	cfg     Config
}

func New(sources map[entity.ReportSourceKind]Source, logger output.LoggerPort, cfg Config) *Resolver {
	if len(cfg.Order) == 0 {
		cfg.Order = DefaultConfig().Order
	}
	return &Resolver{sources: sources, logger: logger, cfg: cfg}
}

// Result is the outcome of one dispatch.
type Result struct {
	Kind       entity.ReportSourceKind
	Candidates []entity.ExtractionCandidate
	Trace      []string
}

// Detect returns the first present format in the configured order.
func (r *Resolver) Detect(ctx context.Context, doc output.DocumentDriver) entity.ReportSourceKind {
	for _, kind := range r.cfg.Order {
		if r.present(ctx, doc, kind) {
			return kind
		}
	}
	return entity.SourceNone
}

// DetectAll returns every present format in the configured order.
func (r *Resolver) DetectAll(ctx context.Context, doc output.DocumentDriver) []entity.ReportSourceKind {
	var kinds []entity.ReportSourceKind
	for _, kind := range r.cfg.Order {
		if ctx.Err() != nil {
			return kinds
		}
		if r.present(ctx, doc, kind) {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// Dispatch extracts with the best present format. Download and parse
// failures and empty results fall through to the next present format.
func (r *Resolver) Dispatch(ctx context.Context, doc output.DocumentDriver) (Result, error) {
	kinds := r.DetectAll(ctx, doc)
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if len(kinds) == 0 {
		r.logger.Warn("No report format detected")
		return Result{Kind: entity.SourceNone}, entity.ErrFormatUndetected
	}
	r.logger.Info("Report formats detected", "kinds", fmt.Sprint(kinds))

	var trace []string
	for _, kind := range kinds {
		cands, err := r.sources[kind].Extract(ctx, doc)
		if ctx.Err() != nil {
			return Result{Trace: trace}, ctx.Err()
		}
		if err != nil {
			trace = append(trace, fmt.Sprintf("%s: %v", kind, err))
			r.logger.Warn("Format extraction failed", "kind", kind.String(), "error", err)
			continue
		}
		if len(cands) == 0 {
			trace = append(trace, fmt.Sprintf("%s: no rows", kind))
			r.logger.Info("Format yielded no rows", "kind", kind.String())
			continue
		}

		trace = append(trace, fmt.Sprintf("%s: %d rows", kind, len(cands)))
		r.logger.Info("Format extracted", "kind", kind.String(), "rows", len(cands))
		return Result{Kind: kind, Candidates: cands, Trace: trace}, nil
	}

	r.logger.Warn("No format yielded rows", "trace", trace)
	return Result{Kind: entity.SourceNone, Trace: trace}, nil
}

func (r *Resolver) present(ctx context.Context, doc output.DocumentDriver, kind entity.ReportSourceKind) bool {
	src, ok := r.sources[kind]
	if !ok {
		return false
	}
	found, err := src.Present(ctx, doc)
	if err != nil {
		r.logger.Debug("Format check failed", "kind", kind.String(), "error", err)
		return false
	}
	r.logger.Debug("Format checked", "kind", kind.String(), "present", found)
	return found
}
