// Package extract turns a located report region into raw row candidates.
// There is one extractor per presentation format; all of them share the
// column mapping and row filtering in this file and rows.go.
package extract

import (
	"regexp"
	"strconv"
	"strings"
)

type Role string

const (
	RoleNRIC      Role = "nric"
	RoleRecordNo  Role = "recordNo"
	RoleQNo       Role = "qno"
	RoleName      Role = "patientName"
	RoleFee       Role = "fee"
	RolePayType   Role = "payType"
	RoleVisitType Role = "visitType"
	RoleDiagnosis Role = "diagnosis"
	RoleReferral  Role = "referralClinic"
)

// headerKeywords is checked top to bottom, so more specific roles come
// first ("IC No" is an identifier column, not a sequence number). A keyword
// starting with "=" must equal the whole normalized header; the others
// match on word boundaries.
var headerKeywords = []struct {
	role     Role
	keywords []string
}{
	{RoleNRIC, []string{"nric", "nric fin", "fin", "ic", "ic no", "id no", "identification", "nric no"}},
	{RoleRecordNo, []string{"record no", "rec no", "record", "visit no", "mrn", "case no", "bill no", "invoice no", "ref no", "reference"}},
	{RoleQNo, []string{"qno", "q no", "queue", "queue no", "seq", "=no", "=s no", "=sn", "=q", "=s n"}},
	{RoleName, []string{"name", "patient", "patient name", "member", "member name", "employee"}},
	{RoleFee, []string{"fee", "fees", "amount", "amt", "total", "charge", "charges", "price", "cost", "payable"}},
	{RolePayType, []string{"pay type", "payment type", "payment mode", "pay mode", "payer", "payment", "billing type"}},
	{RoleVisitType, []string{"visit type", "visit", "consult type", "consultation type", "encounter type"}},
	{RoleDiagnosis, []string{"diagnosis", "diag", "dx", "icd", "condition"}},
	{RoleReferral, []string{"referral", "referral clinic", "referring clinic", "referred by", "clinic"}},
}

// ColumnMap maps a column index to its role.
type ColumnMap map[int]Role

func (m ColumnMap) Index(role Role) (int, bool) {
	for i, r := range m {
		if r == role {
			return i, true
		}
	}
	return 0, false
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

func normalizeHeader(h string) string {
	return strings.TrimSpace(nonAlnum.ReplaceAllString(strings.ToLower(h), " "))
}

// RoleOf classifies a single header cell.
func RoleOf(header string) (Role, bool) {
	norm := normalizeHeader(header)
	if norm == "" {
		return "", false
	}
	padded := " " + norm + " "
	for _, hk := range headerKeywords {
		for _, kw := range hk.keywords {
			if exact, ok := strings.CutPrefix(kw, "="); ok {
				if norm == exact {
					return hk.role, true
				}
				continue
			}
			if strings.Contains(padded, " "+kw+" ") {
				return hk.role, true
			}
		}
	}
	return "", false
}

// MapHeaders assigns each role to the first header that claims it.
func MapHeaders(headers []string) ColumnMap {
	cols := make(ColumnMap)
	taken := make(map[Role]bool)
	for i, h := range headers {
		role, ok := RoleOf(h)
		if !ok || taken[role] {
			continue
		}
		cols[i] = role
		taken[role] = true
	}
	return cols
}

// KeywordCount is the number of distinct roles a header row maps to.
func KeywordCount(headers []string) int {
	return len(MapHeaders(headers))
}

var (
	sequenceCell = regexp.MustCompile(`^\d{1,3}$`)
	recordCell   = regexp.MustCompile(`^[A-Za-z]{0,3}\d{5,}$`)
	nameCell     = regexp.MustCompile(`^[A-Za-z][A-Za-z.'@/-]*(?:[ ,]+[A-Za-z][A-Za-z.'@/-]*)+$`)
	decimalCell  = regexp.MustCompile(`^\(?-?(?:S?\$|SGD)?\s*-?\d{1,3}(?:,?\d{3})*\.\d{1,2}\)?$`)
)

// InferPositional maps columns from the shape of a first data row when the
// header row is missing or unrecognised. Each step only looks to the right
// of the column claimed by the previous one.
func InferPositional(cells []string) ColumnMap {
	cols := make(ColumnMap)
	next := 0

	claim := func(role Role, match func(string) bool) {
		for i := next; i < len(cells); i++ {
			if _, used := cols[i]; used {
				continue
			}
			if match(strings.TrimSpace(cells[i])) {
				cols[i] = role
				next = i + 1
				return
			}
		}
	}

	claim(RoleQNo, sequenceCell.MatchString)
	claim(RoleRecordNo, recordCell.MatchString)
	claim(RoleName, nameCell.MatchString)
	claim(RoleFee, decimalCell.MatchString)

	for i, c := range cells {
		if _, used := cols[i]; used {
			continue
		}
		if _, ok := findIdentifier(c); ok {
			cols[i] = RoleNRIC
			break
		}
	}
	return cols
}

// ParseFee reads a currency amount. Parenthesised amounts are negative.
func ParseFee(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.NewReplacer("SGD", "", "S$", "", "$", "", ",", "", " ", "").Replace(strings.ToUpper(s))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if negative {
		v = -v
	}
	return v, true
}
