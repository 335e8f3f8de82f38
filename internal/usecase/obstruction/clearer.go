// Package obstruction detects known blocking overlays (profile-update
// prompts, stray confirm dialogs) and escalates through dismissal strategies
// until the overlay is gone or the attempt ceiling is reached.
package obstruction

import (
	"context"
	"fmt"
	"time"

	"claim-extractor/internal/application/port/output"
	"claim-extractor/internal/domain/entity"
	"claim-extractor/internal/domain/signature"
	"claim-extractor/internal/usecase/selector"
)

type Config struct {
	MaxCycles int
	// Settle is the pause after each dismissal action before re-checking.
	Settle time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxCycles: 5,
		Settle:    300 * time.Millisecond,
	}
}

type Clearer struct {
	doc      output.DocumentDriver
	resolver *selector.Resolver
	table    *signature.Table
	logger   output.LoggerPort
	cfg      Config
	sleep    func(ctx context.Context, d time.Duration) error
}

func New(doc output.DocumentDriver, table *signature.Table, logger output.LoggerPort, cfg Config) *Clearer {
	if cfg.MaxCycles <= 0 {
		cfg.MaxCycles = DefaultConfig().MaxCycles
	}
	if table == nil {
		table = signature.Default()
	}
	return &Clearer{
		doc:      doc,
		resolver: selector.New(doc, selector.Config{Attempts: 1}),
		table:    table,
		logger:   logger,
		cfg:      cfg,
		sleep:    sleep,
	}
}

// Detect reports the signature of a visible known overlay, if any. The
// error is non-nil only when ctx ends before the check completes.
func (c *Clearer) Detect(ctx context.Context) (string, bool, error) {
	for _, pattern := range overlayPatterns {
		refs, err := c.resolver.VisibleAll(ctx, pattern)
		if err != nil {
			return "", false, err
		}
		for _, ref := range refs {
			text, err := c.doc.TextContent(ctx, ref)
			if err != nil {
				if ctx.Err() != nil {
					return "", false, ctx.Err()
				}
				continue
			}
			if sig, ok := c.table.MatchObstruction(text); ok {
				return sig, true, nil
			}
		}
	}
	return "", false, nil
}

// Clear runs one clearing attempt. It never fails: a Blocked report means
// extraction continues degraded.
func (c *Clearer) Clear(ctx context.Context) entity.ObstructionReport {
	report := entity.ObstructionReport{State: entity.ObstructionUnknown}

	sig, found, err := c.Detect(ctx)
	if err != nil {
		return c.aborted(report, "detect", err)
	}
	if !found {
		return report
	}
	report.State = entity.ObstructionDetected
	report.Signature = sig
	c.logger.Info("Obstruction detected", "signature", sig)

	for cycle := 1; cycle <= c.cfg.MaxCycles; cycle++ {
		report.Cycles = cycle
		report.State = entity.ObstructionDismissAttempted

		for _, s := range c.strategies() {
			acted, err := s.run(ctx)
			if err != nil {
				report.Trace = append(report.Trace, fmt.Sprintf("cycle %d: %s aborted: %v", cycle, s.name, err))
				report.State = entity.ObstructionBlocked
				return report
			}
			if !acted {
				report.Trace = append(report.Trace, fmt.Sprintf("cycle %d: %s not applicable", cycle, s.name))
				continue
			}
			report.Trace = append(report.Trace, fmt.Sprintf("cycle %d: %s attempted", cycle, s.name))

			if c.settled(ctx) {
				report.State = entity.ObstructionDismissed
				report.Strategy = s.name
				c.logger.Info("Obstruction dismissed", "strategy", s.name, "cycle", cycle)
				return report
			}
		}

		_, still, err := c.Detect(ctx)
		if err != nil {
			return c.aborted(report, fmt.Sprintf("cycle %d: recheck", cycle), err)
		}
		if !still {
			report.State = entity.ObstructionDismissed
			report.Strategy = "cycle-end"
			return report
		}
		c.logger.Debug("Obstruction still present", "cycle", cycle)
	}

	acted, err := c.geometryScan(ctx)
	report.Trace = append(report.Trace, fmt.Sprintf("final: %s acted=%t", StrategyGeometryScan, acted))
	if err == nil && c.settled(ctx) {
		report.State = entity.ObstructionDismissed
		report.Strategy = StrategyGeometryScan
		c.logger.Info("Obstruction dismissed", "strategy", StrategyGeometryScan)
		return report
	}

	report.State = entity.ObstructionBlocked
	c.logger.Warn("Obstruction blocked", "signature", sig, "cycles", report.Cycles)
	return report
}

func (c *Clearer) settled(ctx context.Context) bool {
	if err := c.sleep(ctx, c.cfg.Settle); err != nil {
		return false
	}
	_, still, err := c.Detect(ctx)
	return err == nil && !still
}

func (c *Clearer) aborted(report entity.ObstructionReport, step string, err error) entity.ObstructionReport {
	report.State = entity.ObstructionBlocked
	report.Trace = append(report.Trace, fmt.Sprintf("%s aborted: %v", step, err))
	c.logger.Warn("Obstruction check aborted", "step", step, "error", err)
	return report
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
