// Package signature holds the shared phrase table used to recognise blocking
// overlays, generic UI chrome and report summary rows. The obstruction
// clearer, the scorer and the row extractors all read the same table so a new
// overlay type is added in one place.
package signature

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const DefaultVersion = "2026.10"

type Table struct {
	Version string `yaml:"version"`
	// ObstructionSignatures identify a known blocking overlay. Matched as
	// case-insensitive substrings.
	ObstructionSignatures []string `yaml:"obstruction_signatures"`
	// ChromePhrases are button and dialog labels. Matched against the whole
	// trimmed text only.
	ChromePhrases []string `yaml:"chrome_phrases"`
	// RejectionPhrases mark report rows that never carry a record.
	RejectionPhrases []string `yaml:"rejection_phrases"`
}

func Default() *Table {
	return &Table{
		Version: DefaultVersion,
		ObstructionSignatures: []string{
			"update your profile",
			"update profile",
			"profile update",
			"update your particulars",
			"update your contact details",
			"verify your mobile number",
			"verify your email address",
			"your password will expire",
			"are you sure you want to leave",
			"are you sure you want to cancel",
			"unsaved changes will be lost",
			"session is about to expire",
		},
		ChromePhrases: []string{
			"ok", "cancel", "submit", "close", "save", "back", "next",
			"previous", "yes", "no", "confirm", "search", "reset", "print",
			"export", "download", "loading...", "please wait",
		},
		RejectionPhrases: []string{
			"no record found",
			"no records found",
			"no data available",
			"no data to display",
			"no matching records",
			"grand total",
			"sub total",
			"subtotal",
			"end of report",
			"printed on",
			"printed by",
			"generated on",
			"page 1 of",
		},
	}
}

// Load reads a YAML table from path. Lists present in the file replace the
// corresponding defaults; missing lists keep them.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read signature table: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Table, error) {
	var override Table
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("parse signature table: %w", err)
	}

	t := Default()
	if override.Version != "" {
		t.Version = override.Version
	}
	if len(override.ObstructionSignatures) > 0 {
		t.ObstructionSignatures = override.ObstructionSignatures
	}
	if len(override.ChromePhrases) > 0 {
		t.ChromePhrases = override.ChromePhrases
	}
	if len(override.RejectionPhrases) > 0 {
		t.RejectionPhrases = override.RejectionPhrases
	}
	return t, nil
}

// MatchObstruction returns the first obstruction signature contained in text.
func (t *Table) MatchObstruction(text string) (string, bool) {
	lower := fold(text)
	if lower == "" {
		return "", false
	}
	for _, sig := range t.ObstructionSignatures {
		if s := fold(sig); s != "" && strings.Contains(lower, s) {
			return sig, true
		}
	}
	return "", false
}

func (t *Table) IsChrome(text string) bool {
	lower := fold(text)
	if lower == "" {
		return false
	}
	for _, p := range t.ChromePhrases {
		if lower == fold(p) {
			return true
		}
	}
	return false
}

func (t *Table) MatchRejection(text string) (string, bool) {
	lower := fold(text)
	for _, p := range t.RejectionPhrases {
		if s := fold(p); s != "" && strings.Contains(lower, s) {
			return p, true
		}
	}
	return "", false
}

// fold lower-cases and collapses whitespace so signatures survive line
// breaks inside rendered dialogs.
func fold(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
