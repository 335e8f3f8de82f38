package entity

const (
	FieldNRIC           = "nric"
	FieldPatientName    = "patientName"
	FieldQNo            = "qno"
	FieldRecordNo       = "recordNo"
	FieldPayType        = "payType"
	FieldVisitType      = "visitType"
	FieldFeeAmount      = "feeAmount"
	FieldDiagnosisText  = "diagnosisText"
	FieldItems          = "items"
	FieldReferralClinic = "referralClinic"
)

type Validation struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

type QueueItem struct {
	Row            int               `json:"row"`
	NRIC           *string           `json:"nric,omitempty"`
	PatientName    *string           `json:"patientName,omitempty"`
	QNo            *string           `json:"qno,omitempty"`
	RecordNo       *string           `json:"recordNo,omitempty"`
	PayType        *string           `json:"payType,omitempty"`
	VisitType      *string           `json:"visitType,omitempty"`
	FeeAmount      *float64          `json:"feeAmount,omitempty"`
	DiagnosisText  *string           `json:"diagnosisText,omitempty"`
	ReferralClinic *string           `json:"referralClinic,omitempty"`
	Sources        map[string]string `json:"sources"`
	Validation     Validation        `json:"validation"`
}

type ClaimDetail struct {
	NRIC           *string           `json:"nric,omitempty"`
	PatientName    *string           `json:"patientName,omitempty"`
	QNo            *string           `json:"qno,omitempty"`
	PayType        *string           `json:"payType,omitempty"`
	VisitType      *string           `json:"visitType,omitempty"`
	FeeAmount      *float64          `json:"feeAmount,omitempty"`
	DiagnosisText  *string           `json:"diagnosisText,omitempty"`
	Items          []string          `json:"items"`
	ReferralClinic *string           `json:"referralClinic,omitempty"`
	Sources        map[string]string `json:"sources"`
	Validation     Validation        `json:"validation"`
}

func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func FloatPtr(f float64) *float64 {
	return &f
}

func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
