package assembler

import (
	"fmt"

	"claim-extractor/internal/domain/entity"
)

// FieldSpec says where one visit-page field can be read from: direct
// selectors first, then the value next to any of its labels.
type FieldSpec struct {
	Field     string
	Selectors entity.SelectorStrategy
	Labels    []string
}

var DefaultClaimFields = []FieldSpec{
	{
		Field: entity.FieldNRIC,
		Selectors: entity.NewStrategy("nric",
			"#nric", "#patientNric", "input[name='nric']", "[data-field='nric']",
			"input[name*='nric' i]", "input[id*='nric' i]"),
		Labels: []string{"NRIC", "NRIC/FIN", "NRIC No", "IC No", "ID No"},
	},
	{
		Field: entity.FieldPatientName,
		Selectors: entity.NewStrategy("patient name",
			"#patientName", "input[name='patientName']", "[data-field='patientName']",
			"input[name*='patient' i][name*='name' i]"),
		Labels: []string{"Patient Name", "Name"},
	},
	{
		Field: entity.FieldQNo,
		Selectors: entity.NewStrategy("queue number",
			"#qno", "#queueNo", "input[name='qno']", "[data-field='qno']"),
		Labels: []string{"Q No", "QNo", "Queue No"},
	},
	{
		Field: entity.FieldPayType,
		Selectors: entity.NewStrategy("pay type",
			"#payType", "select[name='payType']", "[data-field='payType']"),
		Labels: []string{"Pay Type", "Payment Type", "Payment Mode"},
	},
	{
		Field: entity.FieldVisitType,
		Selectors: entity.NewStrategy("visit type",
			"#visitType", "select[name='visitType']", "[data-field='visitType']"),
		Labels: []string{"Visit Type", "Consultation Type"},
	},
	{
		Field: entity.FieldFeeAmount,
		Selectors: entity.NewStrategy("fee",
			"#feeAmount", "#fee", "input[name='fee']", "[data-field='fee']", "#totalFee"),
		Labels: []string{"Fee", "Total Fee", "Amount", "Total Amount"},
	},
	{
		Field: entity.FieldDiagnosisText,
		Selectors: entity.NewStrategy("diagnosis",
			"#diagnosis", "textarea[name='diagnosis']", "[data-field='diagnosis']",
			"textarea[name*='diag' i]", "#diagnosisText"),
		Labels: []string{"Diagnosis", "Diagnosis Text", "Dx"},
	},
	{
		Field: entity.FieldReferralClinic,
		Selectors: entity.NewStrategy("referral clinic",
			"#referralClinic", "[data-field='referralClinic']", "input[name*='referral' i]"),
		Labels: []string{"Referral Clinic", "Referred To", "Referral"},
	},
}

var DefaultItemRows = entity.NewStrategy("item rows",
	"#itemsTable tbody tr",
	"#drugTable tbody tr",
	"table.items tbody tr",
	"[data-field='items'] tr",
	"[data-field='items'] li",
)

// LabelStrategy builds the proximity patterns for one label: the control
// a <label> points at, the cell after a caption cell, and the element
// right after a caption.
func LabelStrategy(label string) entity.SelectorStrategy {
	text := fmt.Sprintf("normalize-space(.)='%[1]s' or normalize-space(.)='%[1]s:'", label)
	own := fmt.Sprintf("normalize-space(text())='%[1]s' or normalize-space(text())='%[1]s:'", label)
	return entity.NewStrategy("label "+label,
		fmt.Sprintf("xpath=//label[%s]/following::*[self::input or self::textarea or self::select][1]", text),
		fmt.Sprintf("xpath=//*[self::td or self::th or self::dt][%s]/following-sibling::*[1]", text),
		fmt.Sprintf("xpath=//*[%s]/following-sibling::*[1]", own),
	)
}
