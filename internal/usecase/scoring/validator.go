package scoring

import (
	"strings"

	"claim-extractor/internal/domain/entity"
	"claim-extractor/internal/domain/identifier"
)

const minDiagnosisLen = 3

type ValidatorConfig struct {
	// CheckDigit also verifies the identifier check letter. Off by default:
	// some portals show test or legacy identifiers that fail it.
	CheckDigit bool
}

// Validator flags records; it never drops or alters data.
type Validator struct {
	cfg ValidatorConfig
}

func NewValidator(cfg ValidatorConfig) *Validator {
	return &Validator{cfg: cfg}
}

func (v *Validator) ValidateClaim(c *entity.ClaimDetail) entity.Validation {
	errs := v.identifier(c.NRIC)

	diagnosis := strings.TrimSpace(entity.Deref(c.DiagnosisText))
	switch {
	case diagnosis == "":
		errs = append(errs, "diagnosis missing")
	case len([]rune(diagnosis)) < minDiagnosisLen:
		errs = append(errs, "diagnosis too short")
	}

	errs = append(errs, fee(c.FeeAmount)...)
	return result(errs)
}

func (v *Validator) ValidateQueueItem(q *entity.QueueItem) entity.Validation {
	errs := v.identifier(q.NRIC)
	if strings.TrimSpace(entity.Deref(q.PatientName)) == "" {
		errs = append(errs, "patient name missing")
	}
	errs = append(errs, fee(q.FeeAmount)...)
	return result(errs)
}

func (v *Validator) identifier(nric *string) []string {
	value := strings.TrimSpace(entity.Deref(nric))
	if value == "" {
		return []string{"nric missing"}
	}
	if !identifier.Valid(value) {
		return []string{"nric malformed: " + value}
	}
	if v.cfg.CheckDigit && !identifier.Checksum(value) {
		return []string{"nric check letter mismatch: " + value}
	}
	return nil
}

func fee(amount *float64) []string {
	if amount != nil && *amount < 0 {
		return []string{"fee negative"}
	}
	return nil
}

func result(errs []string) entity.Validation {
	if errs == nil {
		errs = []string{}
	}
	return entity.Validation{IsValid: len(errs) == 0, Errors: errs}
}
