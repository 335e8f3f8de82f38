package assembler

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"claim-extractor/internal/application/port/output"
	"claim-extractor/internal/domain/entity"
	"claim-extractor/internal/domain/identifier"
	"claim-extractor/internal/usecase/extract"
	"claim-extractor/internal/usecase/selector"
)

type fieldValue struct {
	text   string
	fee    *float64
	source string
}

func (uc *UseCase) ExtractClaimDetailsFromCurrentVisit(ctx context.Context) (*entity.ClaimDetail, error) {
	log, runID := uc.run("claim_details")
	log.Info("Claim detail extraction started")

	uc.clear(ctx, log, runID)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	values := make(map[string]fieldValue)
	var diagnoses []entity.ExtractionCandidate

	for _, spec := range uc.cfg.Fields {
		if spec.Field == entity.FieldDiagnosisText {
			cands, err := uc.freeTextCandidates(ctx, log, spec)
			if err != nil {
				return nil, err
			}
			diagnoses = append(diagnoses, cands...)
			continue
		}

		v, ok, err := uc.readField(ctx, log, spec)
		if err != nil {
			return nil, err
		}
		if ok {
			values[spec.Field] = v
		}
	}

	if uc.needsReport(values) {
		row, source, ok, err := uc.reportRow(ctx, log, values)
		if err != nil {
			return nil, err
		}
		if ok {
			uc.fillFromRow(log, values, row.Fields, source)
			if d := strings.TrimSpace(row.Fields.Diagnosis); d != "" {
				diagnoses = append(diagnoses, entity.NewCandidate(d, source, row.Fields))
			}
		}
	}

	if best, ok := uc.scorer.SelectWithReview(ctx, entity.FieldDiagnosisText, diagnoses); ok {
		values[entity.FieldDiagnosisText] = fieldValue{text: strings.TrimSpace(best.Text), source: best.SourceTag}
		log.Info("Diagnosis selected", "source", best.SourceTag, "score", best.Score, "reasons", best.Reasons)
	} else if len(diagnoses) > 0 {
		log.Info("No diagnosis candidate reached threshold", "candidates", len(diagnoses))
	}

	items, itemSource, err := uc.readItems(ctx, log)
	if err != nil {
		return nil, err
	}

	claim := buildClaim(values, items, itemSource)
	claim.Validation = uc.validator.ValidateClaim(claim)
	log.Info("Claim detail extracted",
		"fields", len(claim.Sources),
		"valid", claim.Validation.IsValid,
		"errors", claim.Validation.Errors,
	)
	return claim, nil
}

// readField returns the first acceptable value in path order. The waiting
// resolver finds whichever path renders first; when its value is unusable
// the later paths are each tried once.
func (uc *UseCase) readField(ctx context.Context, log output.LoggerPort, spec FieldSpec) (fieldValue, bool, error) {
	strategies := fieldStrategies(spec)

	raw, res, err := uc.resolver.ReadValue(ctx, strategies...)
	if err != nil {
		if ctx.Err() != nil {
			return fieldValue{}, false, ctx.Err()
		}
		log.Debug("Field not found on page", "field", spec.Field)
		return fieldValue{}, false, nil
	}
	if v, ok := uc.accept(spec.Field, raw, sourceOf(res)); ok {
		log.Debug("Field resolved", "field", spec.Field, "source", v.source)
		return v, true, nil
	}
	log.Debug("Field value rejected", "field", spec.Field, "source", sourceOf(res), "value", raw)
	fallback := fieldValue{text: strings.TrimSpace(raw), source: sourceOf(res)}

	quick := selector.New(uc.doc, selector.Config{Attempts: 1})
	for _, s := range strategiesAfter(strategies, res.Label) {
		raw, res, err := quick.ReadValue(ctx, s)
		if err != nil {
			if ctx.Err() != nil {
				return fieldValue{}, false, ctx.Err()
			}
			continue
		}
		if v, ok := uc.accept(spec.Field, raw, sourceOf(res)); ok {
			log.Debug("Field resolved", "field", spec.Field, "source", v.source)
			return v, true, nil
		}
	}

	// an identifier that fails the grammar is kept so validation can flag it
	if spec.Field == entity.FieldNRIC && fallback.text != "" && !uc.noise(fallback.text) {
		return fallback, true, nil
	}
	return fieldValue{}, false, nil
}

// freeTextCandidates gathers a candidate from every path; the scorer
// picks among them later.
func (uc *UseCase) freeTextCandidates(ctx context.Context, log output.LoggerPort, spec FieldSpec) ([]entity.ExtractionCandidate, error) {
	var out []entity.ExtractionCandidate
	quick := selector.New(uc.doc, selector.Config{Attempts: 1})

	for i, s := range fieldStrategies(spec) {
		r := quick
		if i == 0 {
			r = uc.resolver
		}
		raw, res, err := r.ReadValue(ctx, s)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		if strings.TrimSpace(raw) == "" {
			continue
		}
		out = append(out, entity.NewCandidate(strings.TrimSpace(raw), sourceOf(res), entity.RecordFields{}))
	}
	log.Debug("Free-text candidates gathered", "field", spec.Field, "count", len(out))
	return out, nil
}

func (uc *UseCase) needsReport(values map[string]fieldValue) bool {
	if _, ok := values[entity.FieldNRIC]; !ok {
		if _, ok := values[entity.FieldQNo]; !ok {
			return false
		}
	}
	for _, spec := range uc.cfg.Fields {
		if spec.Field == entity.FieldDiagnosisText {
			continue
		}
		if _, ok := values[spec.Field]; !ok {
			return true
		}
	}
	// the report may still hold a better diagnosis
	_, ok := values[entity.FieldDiagnosisText]
	return !ok
}

// reportRow finds the row describing the current visit, matched by
// identifier first and queue number second.
func (uc *UseCase) reportRow(ctx context.Context, log output.LoggerPort, values map[string]fieldValue) (entity.ExtractionCandidate, string, bool, error) {
	res, err := uc.sources.Dispatch(ctx, uc.doc)
	if err != nil {
		if ctx.Err() != nil {
			return entity.ExtractionCandidate{}, "", false, ctx.Err()
		}
		if !errors.Is(err, entity.ErrFormatUndetected) {
			log.Warn("Report lookup failed", "error", err)
		}
		return entity.ExtractionCandidate{}, "", false, nil
	}

	nric := values[entity.FieldNRIC].text
	qno := values[entity.FieldQNo].text
	for _, c := range res.Candidates {
		if nric != "" && c.Fields.NRIC == nric {
			return c, reportSource(res.Kind, c), true, nil
		}
	}
	if qno != "" {
		for _, c := range res.Candidates {
			if c.Fields.QNo == qno {
				return c, reportSource(res.Kind, c), true, nil
			}
		}
	}
	log.Debug("No report row matches the visit", "nric", nric, "qno", qno, "rows", len(res.Candidates))
	return entity.ExtractionCandidate{}, "", false, nil
}

func (uc *UseCase) fillFromRow(log output.LoggerPort, values map[string]fieldValue, f entity.RecordFields, source string) {
	fromRow := map[string]string{
		entity.FieldNRIC:           f.NRIC,
		entity.FieldPatientName:    f.PatientName,
		entity.FieldQNo:            f.QNo,
		entity.FieldPayType:        f.PayType,
		entity.FieldVisitType:      f.VisitType,
		entity.FieldReferralClinic: f.ReferralClinic,
	}
	for field, text := range fromRow {
		if _, have := values[field]; have || strings.TrimSpace(text) == "" {
			continue
		}
		values[field] = fieldValue{text: strings.TrimSpace(text), source: source}
		log.Debug("Field filled from report", "field", field, "source", source)
	}
	if _, have := values[entity.FieldFeeAmount]; !have && f.Fee != nil {
		fee := *f.Fee
		values[entity.FieldFeeAmount] = fieldValue{text: strconv.FormatFloat(fee, 'f', 2, 64), fee: &fee, source: source}
	}
}

func (uc *UseCase) readItems(ctx context.Context, log output.LoggerPort) ([]string, string, error) {
	quick := selector.New(uc.doc, selector.Config{Attempts: 1})
	filter := extract.NewRowFilter(uc.table)

	for _, pattern := range uc.cfg.ItemRows {
		rows, err := quick.VisibleAll(ctx, pattern)
		if err != nil {
			return nil, "", err
		}

		var items []string
		for _, row := range rows {
			cells, err := uc.cellTexts(ctx, row)
			if err != nil {
				return nil, "", err
			}
			if len(cells) == 0 {
				if strings.HasSuffix(pattern, "tr") {
					// header rows carry <th> only
					continue
				}
				text, err := uc.doc.TextContent(ctx, row)
				if err != nil {
					continue
				}
				cells = []string{text}
			}
			if _, skip := filter.Skip(cells); skip {
				continue
			}
			items = append(items, strings.Join(nonEmpty(cells), " | "))
		}
		if len(items) > 0 {
			log.Debug("Items read", "pattern", pattern, "count", len(items))
			return items, "selector:" + pattern, nil
		}
	}
	return []string{}, "", nil
}

func (uc *UseCase) cellTexts(ctx context.Context, row entity.ElementRef) ([]string, error) {
	refs, err := uc.doc.QueryIn(ctx, row, "td")
	if err != nil {
		return nil, ctx.Err()
	}
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		text, err := uc.doc.TextContent(ctx, ref)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		out = append(out, strings.Join(strings.Fields(text), " "))
	}
	return out, nil
}

func (uc *UseCase) accept(field, raw, source string) (fieldValue, bool) {
	text := strings.Join(strings.Fields(raw), " ")
	if text == "" || uc.noise(text) {
		return fieldValue{}, false
	}

	switch field {
	case entity.FieldNRIC:
		m, ok := identifier.Find(text)
		if !ok {
			return fieldValue{}, false
		}
		return fieldValue{text: m.Value, source: source}, true
	case entity.FieldFeeAmount:
		fee, ok := extract.ParseFee(text)
		if !ok {
			return fieldValue{}, false
		}
		return fieldValue{text: text, fee: &fee, source: source}, true
	default:
		return fieldValue{text: text, source: source}, true
	}
}

func (uc *UseCase) noise(text string) bool {
	if _, ok := uc.table.MatchObstruction(text); ok {
		return true
	}
	return uc.table.IsChrome(text)
}

func buildClaim(values map[string]fieldValue, items []string, itemSource string) *entity.ClaimDetail {
	claim := &entity.ClaimDetail{
		Items:   items,
		Sources: make(map[string]string),
	}
	set := func(field string, dst **string) {
		if v, ok := values[field]; ok && v.text != "" {
			text := v.text
			*dst = &text
			claim.Sources[field] = v.source
		}
	}
	set(entity.FieldNRIC, &claim.NRIC)
	set(entity.FieldPatientName, &claim.PatientName)
	set(entity.FieldQNo, &claim.QNo)
	set(entity.FieldPayType, &claim.PayType)
	set(entity.FieldVisitType, &claim.VisitType)
	set(entity.FieldDiagnosisText, &claim.DiagnosisText)
	set(entity.FieldReferralClinic, &claim.ReferralClinic)

	if v, ok := values[entity.FieldFeeAmount]; ok && v.fee != nil {
		claim.FeeAmount = v.fee
		claim.Sources[entity.FieldFeeAmount] = v.source
	}
	if len(items) > 0 {
		claim.Sources[entity.FieldItems] = itemSource
	}
	return claim
}

func fieldStrategies(spec FieldSpec) []entity.SelectorStrategy {
	out := make([]entity.SelectorStrategy, 0, len(spec.Labels)+1)
	if len(spec.Selectors.Patterns) > 0 {
		out = append(out, spec.Selectors)
	}
	for _, l := range spec.Labels {
		out = append(out, LabelStrategy(l))
	}
	return out
}

func strategiesAfter(all []entity.SelectorStrategy, label string) []entity.SelectorStrategy {
	for i, s := range all {
		if s.Label == label {
			return all[i+1:]
		}
	}
	return nil
}

func sourceOf(res selector.Resolution) string {
	if label, ok := strings.CutPrefix(res.Label, "label "); ok {
		return "label:" + label
	}
	return res.Source()
}

func nonEmpty(cells []string) []string {
	out := make([]string, 0, len(cells))
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			out = append(out, c)
		}
	}
	return out
}
