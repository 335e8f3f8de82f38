// Package scoring ranks free-text candidates and validates assembled
// records. Scoring is pure: the same text always gets the same score.
package scoring

import (
	"context"
	"strings"

	"claim-extractor/internal/application/port/output"
	"claim-extractor/internal/domain/entity"
	"claim-extractor/internal/domain/signature"
)

const (
	bandMin     = 3
	bandMax     = 600
	overlongMin = 2000

	bandBonus       = 10
	shortPenalty    = -10
	overlongPenalty = -25
	keywordBonus    = 4
	noiseScore      = -100
)

type Config struct {
	Threshold float64
	// TieMargin is the score gap under which the reviewer is consulted.
	// Zero disables review.
	TieMargin float64
}

func DefaultConfig() Config {
	return Config{Threshold: 8}
}

type Result struct {
	Score   float64
	Reasons []string
}

type Scorer struct {
	table    *signature.Table
	cfg      Config
	reviewer output.CandidateReviewer
	logger   output.LoggerPort
}

func NewScorer(table *signature.Table, cfg Config) *Scorer {
	if table == nil {
		table = signature.Default()
	}
	return &Scorer{table: table, cfg: cfg}
}

// WithReviewer enables tie-break review between close accepted candidates.
func (s *Scorer) WithReviewer(reviewer output.CandidateReviewer, logger output.LoggerPort) *Scorer {
	s.reviewer = reviewer
	s.logger = logger
	return s
}

func (s *Scorer) Threshold() float64 {
	return s.cfg.Threshold
}

func (s *Scorer) Score(text string) Result {
	trimmed := strings.TrimSpace(text)

	if sig, ok := s.table.MatchObstruction(trimmed); ok {
		return Result{Score: noiseScore, Reasons: []string{"obstruction:" + sig}}
	}
	if s.table.IsChrome(trimmed) {
		return Result{Score: noiseScore, Reasons: []string{"ui-chrome"}}
	}

	var res Result
	switch n := len([]rune(trimmed)); {
	case n < bandMin:
		res.Score += shortPenalty
		res.Reasons = append(res.Reasons, "too-short")
	case n <= bandMax:
		res.Score += bandBonus
		res.Reasons = append(res.Reasons, "length-in-band")
	case n <= overlongMin:
		res.Reasons = append(res.Reasons, "long")
	default:
		res.Score += overlongPenalty
		res.Reasons = append(res.Reasons, "too-long")
	}

	for _, kw := range matchKeywords(trimmed) {
		res.Score += keywordBonus
		res.Reasons = append(res.Reasons, "keyword:"+kw)
	}
	return res
}

func (s *Scorer) ScoreCandidate(c entity.ExtractionCandidate) entity.ExtractionCandidate {
	r := s.Score(c.Text)
	return c.WithScore(r.Score, r.Reasons)
}

// Select scores every candidate and returns the best one at or above the
// threshold. Ties keep the earlier candidate.
func (s *Scorer) Select(candidates []entity.ExtractionCandidate) (entity.ExtractionCandidate, bool) {
	accepted := s.accepted(candidates)
	if len(accepted) == 0 {
		return entity.ExtractionCandidate{}, false
	}
	return accepted[0], true
}

// SelectWithReview is Select, except that when the two best accepted
// candidates are within the tie margin the reviewer may pick between them.
// Reviewer failures keep the scored choice.
func (s *Scorer) SelectWithReview(ctx context.Context, field string, candidates []entity.ExtractionCandidate) (entity.ExtractionCandidate, bool) {
	accepted := s.accepted(candidates)
	if len(accepted) == 0 {
		return entity.ExtractionCandidate{}, false
	}
	best := accepted[0]
	if s.reviewer == nil || s.cfg.TieMargin <= 0 || len(accepted) < 2 {
		return best, true
	}
	runnerUp := accepted[1]
	if best.Score-runnerUp.Score > s.cfg.TieMargin {
		return best, true
	}

	idx, err := s.reviewer.Prefer(ctx, field, []string{best.Text, runnerUp.Text})
	if err != nil || idx < 0 || idx > 1 {
		if s.logger != nil {
			s.logger.Warn("Reviewer unavailable, keeping scored choice", "field", field, "error", err, "index", idx)
		}
		return best, true
	}
	if s.logger != nil {
		s.logger.Info("Reviewer broke tie", "field", field, "index", idx)
	}
	if idx == 1 {
		return runnerUp, true
	}
	return best, true
}

// accepted returns the candidates at or above threshold ordered by score,
// stable so equal scores keep their input order.
func (s *Scorer) accepted(candidates []entity.ExtractionCandidate) []entity.ExtractionCandidate {
	var out []entity.ExtractionCandidate
	for _, c := range candidates {
		scored := s.ScoreCandidate(c)
		if scored.Score < s.cfg.Threshold {
			continue
		}
		// insertion keeps earlier candidates ahead on equal scores
		i := len(out)
		for i > 0 && out[i-1].Score < scored.Score {
			i--
		}
		out = append(out, entity.ExtractionCandidate{})
		copy(out[i+1:], out[i:])
		out[i] = scored
	}
	return out
}
