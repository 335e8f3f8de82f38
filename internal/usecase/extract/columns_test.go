package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapHeaders_RoundTrip(t *testing.T) {
	cols := MapHeaders([]string{"QNo", "Name", "NRIC", "Fee"})

	assert.Equal(t, ColumnMap{0: RoleQNo, 1: RoleName, 2: RoleNRIC, 3: RoleFee}, cols)
}

func TestRoleOf(t *testing.T) {
	tests := []struct {
		header string
		want   Role
		ok     bool
	}{
		{"Q. No", RoleQNo, true},
		{"No.", RoleQNo, true},
		{"IC No", RoleNRIC, true},
		{"Patient NRIC", RoleNRIC, true},
		{"Patient Name", RoleName, true},
		{"Visit No", RoleRecordNo, true},
		{"Visit Type", RoleVisitType, true},
		{"Fee ($)", RoleFee, true},
		{"Payment Mode", RolePayType, true},
		{"Diagnosis", RoleDiagnosis, true},
		{"Referral Clinic", RoleReferral, true},
		{"Remarks", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, ok := RoleOf(tt.header)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMapHeaders_FirstClaimWins(t *testing.T) {
	cols := MapHeaders([]string{"Name", "Patient Name", "Amount"})

	assert.Equal(t, ColumnMap{0: RoleName, 2: RoleFee}, cols)
	assert.Equal(t, 2, KeywordCount([]string{"Name", "Patient Name", "Amount"}))
}

func TestInferPositional_QueueRow(t *testing.T) {
	cols := InferPositional([]string{"7", "88213", "TAN, MEI LING", "196.20"})

	assert.Equal(t, ColumnMap{0: RoleQNo, 1: RoleRecordNo, 2: RoleName, 3: RoleFee}, cols)

	fields := FieldsFromRow([]string{"7", "88213", "TAN, MEI LING", "196.20"}, cols)
	assert.Equal(t, "7", fields.QNo)
	assert.Equal(t, "88213", fields.RecordNo)
	assert.Equal(t, "TAN, MEI LING", fields.PatientName)
	if assert.NotNil(t, fields.Fee) {
		assert.InDelta(t, 196.20, *fields.Fee, 0.001)
	}
}

func TestInferPositional_IdentifierColumn(t *testing.T) {
	cols := InferPositional([]string{"12", "S1234567D", "Jane Tan", "45.50"})

	assert.Equal(t, ColumnMap{0: RoleQNo, 1: RoleNRIC, 2: RoleName, 3: RoleFee}, cols)
}

func TestInferPositional_OrderMatters(t *testing.T) {
	// the fee-looking cell sits left of the name, so it is not claimed
	cols := InferPositional([]string{"7", "196.20", "TAN MEI LING"})

	assert.Equal(t, ColumnMap{0: RoleQNo, 2: RoleName}, cols)
}

func TestParseFee(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"45.50", 45.50, true},
		{"$1,234.50", 1234.50, true},
		{"S$ 45.50", 45.50, true},
		{"SGD 12", 12, true},
		{"(12.00)", -12, true},
		{"-3.10", -3.10, true},
		{"", 0, false},
		{"n/a", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseFee(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}
}
