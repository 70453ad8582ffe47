package domain

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed lexicon.yaml
var defaultLexiconYAML []byte

// keywordPlaceholder marks where a keyword is spliced into a pattern template.
const keywordPlaceholder = "{kw}"

// Symptom names a symptom category tracked by the extractor.
type Symptom string

const (
	SymptomDiarrhea Symptom = "diarrhea"
	SymptomVomiting Symptom = "vomiting"
	SymptomFever    Symptom = "fever"
)

// Lexicon is the compiled keyword, source and negation table used by an
// Extractor. It is immutable once loaded and safe for concurrent use.
type Lexicon struct {
	symptoms        []symptomRule
	sources         []string
	clauseDelimiter *regexp.Regexp
}

type symptomRule struct {
	name     Symptom
	keywords []keywordRule
}

type keywordRule struct {
	word            string
	negations       []*regexp.Regexp // matched against the whole text
	clauseNegations []*regexp.Regexp // matched clause by clause
	quantity        *regexp.Regexp
}

// lexiconFile is the YAML layout of a lexicon.
type lexiconFile struct {
	Symptoms []struct {
		Name     string   `yaml:"name"`
		Keywords []string `yaml:"keywords"`
	} `yaml:"symptoms"`
	Sources          []string `yaml:"sources"`
	Negations        []string `yaml:"negations"`
	ClauseNegations  []string `yaml:"clause_negations"`
	ClauseDelimiters string   `yaml:"clause_delimiters"`
	Quantity         string   `yaml:"quantity"`
}

var defaultLexicon = mustLoadDefaultLexicon()

func mustLoadDefaultLexicon() *Lexicon {
	lex, err := LoadLexicon(bytes.NewReader(defaultLexiconYAML))
	if err != nil {
		panic(fmt.Sprintf("embedded lexicon: %v", err))
	}
	return lex
}

// DefaultLexicon returns the embedded field-report lexicon.
func DefaultLexicon() *Lexicon {
	return defaultLexicon
}

// LoadLexiconFile reads and compiles a YAML lexicon from disk.
func LoadLexiconFile(path string) (*Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load lexicon: %w", err)
	}
	defer f.Close()
	return LoadLexicon(f)
}

// LoadLexicon decodes and compiles a YAML lexicon. Every template is compiled
// once per keyword here so extraction does no regexp compilation.
func LoadLexicon(r io.Reader) (*Lexicon, error) {
	var file lexiconFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("load lexicon: %w", err)
	}

	lex, err := compileLexicon(file)
	if err != nil {
		return nil, fmt.Errorf("load lexicon: %w", err)
	}
	return lex, nil
}

func compileLexicon(file lexiconFile) (*Lexicon, error) {
	if !strings.Contains(file.Quantity, keywordPlaceholder) {
		return nil, fmt.Errorf("quantity pattern must contain %s", keywordPlaceholder)
	}
	for _, tmpl := range append(append([]string(nil), file.Negations...), file.ClauseNegations...) {
		if !strings.Contains(tmpl, keywordPlaceholder) {
			return nil, fmt.Errorf("negation template %q must contain %s", tmpl, keywordPlaceholder)
		}
	}

	lex := &Lexicon{}

	if file.ClauseDelimiters != "" {
		re, err := regexp.Compile(file.ClauseDelimiters)
		if err != nil {
			return nil, fmt.Errorf("clause delimiters: %w", err)
		}
		lex.clauseDelimiter = re
	}

	seen := make(map[Symptom]bool, len(file.Symptoms))
	for _, s := range file.Symptoms {
		name := Symptom(normalizeText(strings.TrimSpace(s.Name)))
		switch name {
		case SymptomDiarrhea, SymptomVomiting, SymptomFever:
		default:
			return nil, fmt.Errorf("unknown symptom %q", s.Name)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate symptom %q", name)
		}
		seen[name] = true

		rule := symptomRule{name: name}
		for _, kw := range s.Keywords {
			kr, err := compileKeyword(kw, file)
			if err != nil {
				return nil, fmt.Errorf("symptom %s: %w", name, err)
			}
			rule.keywords = append(rule.keywords, kr)
		}
		if len(rule.keywords) == 0 {
			return nil, fmt.Errorf("symptom %s has no keywords", name)
		}
		lex.symptoms = append(lex.symptoms, rule)
	}
	for _, name := range []Symptom{SymptomDiarrhea, SymptomVomiting, SymptomFever} {
		if !seen[name] {
			return nil, fmt.Errorf("missing symptom %q", name)
		}
	}

	for _, src := range file.Sources {
		src = normalizeText(strings.TrimSpace(src))
		if src == "" {
			return nil, errors.New("empty source name")
		}
		lex.sources = append(lex.sources, src)
	}

	return lex, nil
}

func compileKeyword(keyword string, file lexiconFile) (keywordRule, error) {
	word := normalizeText(strings.TrimSpace(keyword))
	if word == "" {
		return keywordRule{}, errors.New("empty keyword")
	}
	quoted := regexp.QuoteMeta(word)

	negations, err := compileTemplates(file.Negations, quoted)
	if err != nil {
		return keywordRule{}, err
	}
	clauseNegations, err := compileTemplates(file.ClauseNegations, quoted)
	if err != nil {
		return keywordRule{}, err
	}
	kr := keywordRule{word: word, negations: negations, clauseNegations: clauseNegations}

	re, err := regexp.Compile(strings.ReplaceAll(file.Quantity, keywordPlaceholder, quoted))
	if err != nil {
		return keywordRule{}, fmt.Errorf("quantity pattern: %w", err)
	}
	if re.NumSubexp() < 1 {
		return keywordRule{}, errors.New("quantity pattern needs a capture group for the count")
	}
	kr.quantity = re

	return kr, nil
}

func compileTemplates(templates []string, quoted string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(templates))
	for _, tmpl := range templates {
		re, err := regexp.Compile(strings.ReplaceAll(tmpl, keywordPlaceholder, quoted))
		if err != nil {
			return nil, fmt.Errorf("negation template %q: %w", tmpl, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// Sources returns the source vocabulary in priority order.
func (l *Lexicon) Sources() []string {
	return append([]string(nil), l.sources...)
}

// clauses splits normalised text at clause delimiters.
func (l *Lexicon) clauses(text string) []string {
	if l.clauseDelimiter == nil {
		return []string{text}
	}
	return l.clauseDelimiter.Split(text, -1)
}
