package scoring

import (
	"regexp"
	"strings"
)

type keyword struct {
	name string
	re   *regexp.Regexp
}

var (
	symptoms = []string{
		"fever", "cough", "headache", "sore throat", "runny nose", "nausea",
		"vomiting", "diarrhoea", "diarrhea", "rash", "pain", "giddiness",
		"dizziness", "fatigue", "chills", "swelling", "itch", "itchiness",
		"wheeze", "wheezing", "shortness of breath", "palpitations",
		"flu-like", "myalgia", "malaise", "phlegm", "sputum", "congestion",
	}
	procedures = []string{
		"consultation", "review", "dressing", "injection", "nebulisation",
		"nebulization", "ecg", "x-ray", "xray", "suture", "excision",
		"vaccination", "vaccine", "blood test", "urine test", "physiotherapy",
		"follow-up", "follow up", "toilet and suture", "incision and drainage",
		"medical certificate", "mc",
	}
	diagnoses = []string{
		"urti", "uri", "gastroenteritis", "hypertension", "diabetes",
		"asthma", "dengue", "influenza", "bronchitis", "pharyngitis",
		"tonsillitis", "conjunctivitis", "sprain", "strain", "migraine",
		"allergic rhinitis", "rhinitis", "dermatitis", "eczema", "gerd",
		"gastritis", "covid", "covid-19", "otitis", "sinusitis", "cellulitis",
		"hyperlipidemia", "hyperlipidaemia", "acute", "chronic", "infection",
	}
	// units only count after a number or as a standalone token
	units = []string{
		"mg", "ml", "mcg", "g", "tab", "tabs", "cap", "caps", "bd", "tds",
		"od", "prn", "qid", "iu",
	}
)

var clinicalKeywords = buildKeywords()

func buildKeywords() []keyword {
	var out []keyword
	for _, group := range [][]string{symptoms, procedures, diagnoses} {
		for _, w := range group {
			out = append(out, keyword{
				name: w,
				re:   regexp.MustCompile(`(?i)(?:^|[^a-z0-9])` + regexp.QuoteMeta(w) + `(?:$|[^a-z0-9])`),
			})
		}
	}
	for _, u := range units {
		out = append(out, keyword{
			name: u,
			re:   regexp.MustCompile(`(?i)(?:^|[^a-z0-9]|\d)` + regexp.QuoteMeta(u) + `(?:$|[^a-z0-9])`),
		})
	}
	return out
}

// matchKeywords returns the distinct clinical keywords found in text, in
// table order.
func matchKeywords(text string) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, k := range clinicalKeywords {
		if k.re.MatchString(lower) {
			found = append(found, k.name)
		}
	}
	return found
}
