package domain

import (
	"errors"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Extraction is the structured content of a free-text field report.
// Counts default to 0 when a symptom is negated or not mentioned.
type Extraction struct {
	Diarrhea        int    `json:"diarrhea"`
	Vomiting        int    `json:"vomiting"`
	Fever           int    `json:"fever"`
	SuspectedSource string `json:"suspected_source,omitempty"`
}

// TextExtractor parses field-report text.
type TextExtractor interface {
	Extract(text string) Extraction
}

// Extractor is the rule-based TextExtractor driven by a Lexicon.
type Extractor struct {
	lexicon *Lexicon
}

// NewExtractor creates an Extractor. A nil lexicon selects DefaultLexicon.
func NewExtractor(lex *Lexicon) *Extractor {
	if lex == nil {
		lex = DefaultLexicon()
	}
	return &Extractor{lexicon: lex}
}

var defaultExtractor = NewExtractor(nil)

// ExtractFromText parses text with the default lexicon.
func ExtractFromText(text string) Extraction {
	return defaultExtractor.Extract(text)
}

// apostrophes folds typographic quotes that phone keyboards insert.
var apostrophes = strings.NewReplacer("’", "'", "‘", "'", "ʼ", "'")

// normalizeText applies NFKC and full case folding so matching is
// case-insensitive across scripts.
func normalizeText(s string) string {
	s = norm.NFKC.String(s)
	s = cases.Fold().String(s)
	return apostrophes.Replace(s)
}

// Extract parses a report. For each symptom, the first lexicon keyword present
// anywhere in the text decides the outcome:
//
//   - a matching negation template yields 0
//   - otherwise a count written before the keyword yields that count
//   - otherwise the bare mention yields 1
//
// Symptoms with no keyword present stay at 0. The suspected source is the
// first lexicon source appearing anywhere in the text.
func (e *Extractor) Extract(text string) Extraction {
	var out Extraction

	text = normalizeText(text)
	if strings.TrimSpace(text) == "" {
		return out
	}
	clauses := e.lexicon.clauses(text)

	for _, rule := range e.lexicon.symptoms {
		n, found := rule.count(text, clauses)
		if !found {
			continue
		}
		switch rule.name {
		case SymptomDiarrhea:
			out.Diarrhea = n
		case SymptomVomiting:
			out.Vomiting = n
		case SymptomFever:
			out.Fever = n
		}
	}

	for _, src := range e.lexicon.sources {
		if strings.Contains(text, src) {
			out.SuspectedSource = src
			break
		}
	}

	return out
}

// count evaluates the first keyword of the rule that appears in text.
func (r symptomRule) count(text string, clauses []string) (int, bool) {
	for _, kw := range r.keywords {
		if !strings.Contains(text, kw.word) {
			continue
		}
		if kw.negated(text, clauses) {
			return 0, true
		}
		if n, ok := kw.quantify(text); ok {
			return n, true
		}
		return 1, true
	}
	return 0, false
}

// negated reports whether a fixed-shape template matches anywhere in text or
// an open-ended template matches within a single clause.
func (k keywordRule) negated(text string, clauses []string) bool {
	for _, re := range k.negations {
		if re.MatchString(text) {
			return true
		}
	}
	for _, re := range k.clauseNegations {
		for _, c := range clauses {
			if re.MatchString(c) {
				return true
			}
		}
	}
	return false
}

// quantify returns the first count written before the keyword. Counts too
// large for an int saturate at maxCaseCount.
func (k keywordRule) quantify(text string) (int, bool) {
	m := k.quantity.FindStringSubmatch(text)
	if len(m) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if errors.Is(err, strconv.ErrRange) || n > maxCaseCount {
		return maxCaseCount, true
	}
	if err != nil {
		return 0, false
	}
	return n, true
}
