// Package privacy implements pattern-based PII detection and redaction for
// user queries. Detection is heuristic: the rules cover the documented
// pattern set, not an open-ended notion of all PII.
package privacy

import (
	"regexp"
	"strings"

	"github.com/cybersaathi/cybersaathi/internal/model"
)

// pattern is one compiled expression within a rule. When group > 0 only that
// submatch is reported, so contextual trigger phrases ("my name is ...",
// "account: ...") stay in the text and only the sensitive value is redacted.
type pattern struct {
	re    *regexp.Regexp
	group int
}

// rule detects one PII kind. A rule may hold several expressions (the
// contextual rules combine a keyword form and a lexicon form) and an optional
// validator that filters out false positives such as too-short digit runs.
type rule struct {
	kind     model.PIIKind
	patterns []pattern
	validate func(raw string) bool
}

// Detector scans text with an ordered, static rule set. It is a pure
// function of its input: no state is kept between calls and rules never fail
// on malformed input, they simply contribute no matches.
type Detector struct {
	rules []rule
}

var (
	cnicRE       = regexp.MustCompile(`\b\d{5}[-\s]?\d{7}[-\s]?\d\b`)
	phoneRE      = regexp.MustCompile(`(\+92[-\s]?)?(\(?\d{3}\)?[-\s]?)?\d{7,8}\b`)
	emailRE      = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	bankRE       = regexp.MustCompile(`(?i)\b(?:account|acc|a/c)[\s#:]*(\d{8,16})\b`)
	creditCardRE = regexp.MustCompile(`\b\d{4}[-\s]?\d{4}[-\s]?\d{4}[-\s]?\d{4,7}\b`)
	ipRE         = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)
	urlRE        = regexp.MustCompile(`(?i)https?://\S+`)
	dobRE        = regexp.MustCompile(`(?i)\b(?:DOB|date of birth|born on)[\s:]*(\d{1,2}[-/]\d{1,2}[-/]\d{2,4})\b`)

	digitsRE = regexp.MustCompile(`\d`)

	// placeholderRE recognizes already-redacted spans so re-detection on
	// sanitized text is a fixpoint.
	placeholderRE = regexp.MustCompile(`\[REDACTED_[A-Z_]+\]`)
)

// NewDetector builds a detector from the given lexicon.
func NewDetector(lex Lexicon) *Detector {
	nameRE := regexp.MustCompile(
		`(?i:\b(?:` + quoteAlternation(lex.NameTriggers) + `))\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+){0,3})\b`,
	)
	addressKeywordRE := regexp.MustCompile(
		`(?i)\b(?:` + quoteAlternation(lex.AddressKeywords) + `)[\s:]+([^.!?\n]+)`,
	)
	addressCityRE := regexp.MustCompile(
		`\b(?:` + quoteAlternation(lex.Cities) + `)[^.!?\n]*`,
	)

	return &Detector{rules: []rule{
		{kind: model.KindCNIC, patterns: []pattern{{re: cnicRE}}},
		{kind: model.KindPhone, patterns: []pattern{{re: phoneRE}}, validate: minDigits(10)},
		{kind: model.KindEmail, patterns: []pattern{{re: emailRE}}},
		{kind: model.KindBankAccount, patterns: []pattern{{re: bankRE, group: 1}}},
		{kind: model.KindCreditCard, patterns: []pattern{{re: creditCardRE}}, validate: digitCountBetween(13, 19)},
		{kind: model.KindIPAddress, patterns: []pattern{{re: ipRE}}},
		{kind: model.KindName, patterns: []pattern{{re: nameRE, group: 1}}},
		{kind: model.KindAddress, patterns: []pattern{
			{re: addressKeywordRE, group: 1},
			{re: addressCityRE},
		}, validate: minLength(10)},
		{kind: model.KindURL, patterns: []pattern{{re: urlRE}}},
		{kind: model.KindDateOfBirth, patterns: []pattern{{re: dobRE, group: 1}}},
	}}
}

// Detect returns every PII match in text, ordered by rule declaration (not by
// position). Overlapping matches are reported as-is; the redaction engine
// resolves overlaps.
func (d *Detector) Detect(text string) []model.PIIMatch {
	if text == "" {
		return nil
	}

	var matches []model.PIIMatch
	for _, r := range d.rules {
		for _, p := range r.patterns {
			for _, loc := range p.re.FindAllStringSubmatchIndex(text, -1) {
				start, end := loc[2*p.group], loc[2*p.group+1]
				if start < 0 || start == end {
					continue
				}
				raw := text[start:end]
				if placeholderRE.MatchString(raw) {
					continue
				}
				if r.validate != nil && !r.validate(raw) {
					continue
				}
				matches = append(matches, model.PIIMatch{
					Kind:     r.kind,
					Start:    start,
					End:      end,
					RawValue: raw,
				})
			}
		}
	}
	return matches
}

func quoteAlternation(phrases []string) string {
	quoted := make([]string, len(phrases))
	for i, p := range phrases {
		quoted[i] = regexp.QuoteMeta(p)
	}
	return strings.Join(quoted, "|")
}

func minDigits(n int) func(string) bool {
	return func(raw string) bool {
		return len(digitsRE.FindAllString(raw, -1)) >= n
	}
}

func digitCountBetween(lo, hi int) func(string) bool {
	return func(raw string) bool {
		n := len(digitsRE.FindAllString(raw, -1))
		return n >= lo && n <= hi
	}
}

func minLength(n int) func(string) bool {
	return func(raw string) bool {
		return len(strings.TrimSpace(raw)) > n
	}
}
