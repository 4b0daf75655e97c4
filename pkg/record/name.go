package record

import "strings"

// Locale is a catalog language code.
type Locale string

// Supported locales, in fallback priority order.
const (
	LocaleEN Locale = "en"
	LocaleDE Locale = "de"
	LocaleFR Locale = "fr"
)

// Locales lists the supported locales in fallback priority order.
var Locales = []Locale{LocaleEN, LocaleDE, LocaleFR}

// NameBases are the name-like fields, highest priority first.
var NameBases = []string{"Name", "Name{Main}", "Singular"}

// Candidate is one field to probe for a name: Base alone when Locale is
// empty, Base_Locale otherwise.
type Candidate struct {
	Base   string
	Locale Locale
}

// Field returns the field name the candidate addresses.
func (c Candidate) Field() string {
	if c.Locale == "" {
		return c.Base
	}
	return c.Base + "_" + string(c.Locale)
}

// FlatCandidates addresses rows that are already locale specific.
func FlatCandidates() []Candidate {
	out := make([]Candidate, 0, len(NameBases))
	for _, base := range NameBases {
		out = append(out, Candidate{Base: base})
	}
	return out
}

// SuffixedCandidates addresses the loc columns of a combined row.
func SuffixedCandidates(loc Locale) []Candidate {
	out := make([]Candidate, 0, len(NameBases))
	for _, base := range NameBases {
		out = append(out, Candidate{Base: base, Locale: loc})
	}
	return out
}

// NameCandidates is the probe order used by ExtractName: every flat base
// first, then every base suffixed with loc.
func NameCandidates(loc Locale) []Candidate {
	out := FlatCandidates()
	if loc != "" {
		out = append(out, SuffixedCandidates(loc)...)
	}
	return out
}

// Name returns the first non-empty string among the candidates.
func (r Record) Name(candidates []Candidate) (string, bool) {
	for _, c := range candidates {
		if s, ok := r.String(c.Field()); ok {
			return s, true
		}
	}
	return "", false
}

// ExtractName returns the display name of r for loc. A false result means
// the row has no usable name for that locale and should be skipped.
func ExtractName(r Record, loc Locale) (string, bool) {
	return r.Name(NameCandidates(loc))
}

// CombinedNames reads all three locale names from a combined row using
// only suffixed fields. Missing locales are empty.
func CombinedNames(r Record) (en, de, fr string) {
	en, _ = r.Name(SuffixedCandidates(LocaleEN))
	de, _ = r.Name(SuffixedCandidates(LocaleDE))
	fr, _ = r.Name(SuffixedCandidates(LocaleFR))
	return en, de, fr
}

func trim(s string) string {
	return strings.TrimSpace(s)
}
