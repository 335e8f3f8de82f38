package assembler

import (
	"context"
	"fmt"

	"claim-extractor/internal/domain/entity"
)

func (uc *UseCase) ExtractQueueListResults(ctx context.Context) ([]entity.QueueItem, error) {
	log, runID := uc.run("queue_list")
	log.Info("Queue list extraction started")

	uc.clear(ctx, log, runID)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := uc.sources.Dispatch(ctx, uc.doc)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warn("Queue list unavailable", "error", err)
		return []entity.QueueItem{}, err
	}

	items := make([]entity.QueueItem, 0, len(res.Candidates))
	invalid := 0
	for _, c := range res.Candidates {
		item := queueItem(c, reportSource(res.Kind, c))
		item.Validation = uc.validator.ValidateQueueItem(&item)
		if !item.Validation.IsValid {
			invalid++
			log.Debug("Row failed validation", "row", item.Row, "errors", item.Validation.Errors)
		}
		items = append(items, item)
	}

	log.Info("Queue list extracted", "kind", res.Kind.String(), "rows", len(items), "invalid", invalid)
	return items, nil
}

func queueItem(c entity.ExtractionCandidate, source string) entity.QueueItem {
	f := c.Fields
	item := entity.QueueItem{
		Row:            c.Row,
		NRIC:           entity.StringPtr(f.NRIC),
		PatientName:    entity.StringPtr(f.PatientName),
		QNo:            entity.StringPtr(f.QNo),
		RecordNo:       entity.StringPtr(f.RecordNo),
		PayType:        entity.StringPtr(f.PayType),
		VisitType:      entity.StringPtr(f.VisitType),
		FeeAmount:      f.Fee,
		DiagnosisText:  entity.StringPtr(f.Diagnosis),
		ReferralClinic: entity.StringPtr(f.ReferralClinic),
		Sources:        make(map[string]string),
	}

	for field, set := range map[string]bool{
		entity.FieldNRIC:           item.NRIC != nil,
		entity.FieldPatientName:    item.PatientName != nil,
		entity.FieldQNo:            item.QNo != nil,
		entity.FieldRecordNo:       item.RecordNo != nil,
		entity.FieldPayType:        item.PayType != nil,
		entity.FieldVisitType:      item.VisitType != nil,
		entity.FieldFeeAmount:      item.FeeAmount != nil,
		entity.FieldDiagnosisText:  item.DiagnosisText != nil,
		entity.FieldReferralClinic: item.ReferralClinic != nil,
	} {
		if set {
			item.Sources[field] = source
		}
	}
	return item
}

func reportSource(kind entity.ReportSourceKind, c entity.ExtractionCandidate) string {
	return fmt.Sprintf("report:%s/%s", kind, c.SourceTag)
}
