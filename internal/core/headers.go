package core

// headers.go resolves raw header cells to canonical fields.
//
// Matching is exact after normalization. There is no fuzzy or partial
// matching: a header either equals a synonym or it does not count.

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed synonyms.yaml
var defaultSynonymsYAML []byte

// Synonyms maps each canonical field to the normalized header texts that
// resolve to it.
type Synonyms map[Field][]string

var (
	headerQuotes   = strings.NewReplacer(`"`, "", `'`, "", "„", "", "“", "")
	parentheticals = regexp.MustCompile(`\(.*?\)`)
)

// DefaultSynonyms returns the built-in synonym table.
// It panics if the embedded table is malformed, which is a build defect.
func DefaultSynonyms() Synonyms {
	s, err := ParseSynonyms(defaultSynonymsYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded synonyms: %v", err))
	}
	return s
}

// LoadSynonyms reads a synonym table from a YAML file.
// An empty path returns the built-in table.
func LoadSynonyms(path string) (Synonyms, error) {
	if path == "" {
		return DefaultSynonyms(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read synonyms file: %w", err)
	}
	s, err := ParseSynonyms(data)
	if err != nil {
		return nil, fmt.Errorf("parse synonyms file %s: %w", path, err)
	}
	return s, nil
}

// ParseSynonyms decodes a YAML synonym table keyed by canonical field name.
// Entries are normalized the same way headers are.
func ParseSynonyms(data []byte) (Synonyms, error) {
	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	known := make(map[Field]bool, len(CanonicalFields))
	for _, f := range CanonicalFields {
		known[f] = true
	}

	s := make(Synonyms, len(raw))
	for key, entries := range raw {
		f := Field(strings.ToLower(strings.TrimSpace(key)))
		if !known[f] {
			return nil, fmt.Errorf("unknown field %q", key)
		}
		for _, e := range entries {
			if n := NormalizeHeader(e); n != "" {
				s[f] = append(s[f], n)
			}
		}
	}
	return s, nil
}

// NormalizeHeader trims and lowercases h, collapses internal whitespace and
// strips quote characters and parenthetical parts such as "(pcs)".
// Whitespace is any Unicode space, so a no-break space counts too.
func NormalizeHeader(h string) string {
	h = strings.Join(strings.Fields(strings.ToLower(h)), " ")
	h = headerQuotes.Replace(h)
	h = parentheticals.ReplaceAllString(h, "")
	return strings.TrimSpace(h)
}

// ResolveHeaders maps canonical fields to column indexes of header.
// The first matching column wins; later duplicates are ignored. A column is
// assigned to at most one field.
func ResolveHeaders(header []string, synonyms Synonyms) HeaderMapping {
	m := make(HeaderMapping, len(CanonicalFields))
	for idx, raw := range header {
		h := NormalizeHeader(raw)
		if h == "" {
			continue
		}
		if f, ok := synonyms.match(h, m); ok {
			m[f] = idx
		}
	}
	return m
}

// match returns the first still-unresolved field that lists h as a synonym.
func (s Synonyms) match(h string, resolved HeaderMapping) (Field, bool) {
	for _, f := range CanonicalFields {
		if _, done := resolved[f]; done {
			continue
		}
		for _, syn := range s[f] {
			if h == syn {
				return f, true
			}
		}
	}
	return "", false
}
