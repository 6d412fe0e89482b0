package rules

import (
	"regexp"
	"strings"

	"docreview/internal/domain"
)

// Rule-based red flag detection over document text. Each detector is a
// pure function; RunAll combines them and maps each finding onto the
// paragraph containing the match.

type jurisdictionPattern struct {
	re      *regexp.Regexp
	message string
}

var jurisdictionPatterns = []jurisdictionPattern{
	{regexp.MustCompile(`(?i)\bUAE Federal (Court|Courts|law|laws)\b`), "References UAE Federal Courts instead of ADGM Courts"},
	{regexp.MustCompile(`(?i)\bDIFC\b`), "References DIFC instead of ADGM"},
	{regexp.MustCompile(`(?i)\bUnited Arab Emirates Federal Courts\b`), "References UAE Federal Courts instead of ADGM Courts"},
}

var ambiguousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bmay\b`),
	regexp.MustCompile(`(?i)\bmight\b`),
	regexp.MustCompile(`(?i)\bendeavour\b`),
	regexp.MustCompile(`(?i)\bbest endeavours\b`),
	regexp.MustCompile(`(?i)\bbest efforts\b`),
}

var signaturePattern = regexp.MustCompile(`(?i)(signature|signed by|for and on behalf|authorised signatory|signature:)`)

// DetectWrongJurisdiction flags references to jurisdictions other than
// ADGM.
func DetectWrongJurisdiction(text string) []domain.Finding {
	var findings []domain.Finding
	for _, p := range jurisdictionPatterns {
		for _, m := range p.re.FindAllString(text, -1) {
			findings = append(findings, domain.Finding{
				Match:    m,
				Message:  p.message,
				Severity: domain.SeverityHigh,
			})
		}
	}
	return findings
}

// DetectAmbiguousLanguage flags non-binding phrasing such as "may" or
// "best endeavours".
func DetectAmbiguousLanguage(text string) []domain.Finding {
	var findings []domain.Finding
	for _, re := range ambiguousPatterns {
		for _, m := range re.FindAllString(text, -1) {
			findings = append(findings, domain.Finding{
				Match:    m,
				Message:  "Ambiguous/non-binding phrase: '" + m + "'",
				Severity: domain.SeverityMedium,
			})
		}
	}
	return findings
}

// DetectMissingSignatureBlock reports a finding when nothing in the
// document looks like a signature heading.
func DetectMissingSignatureBlock(paragraphs []string) []domain.Finding {
	joined := strings.Join(paragraphs, "\n")
	if signaturePattern.MatchString(joined) {
		return nil
	}
	return []domain.Finding{{
		Message:  "No signature block detected in document.",
		Severity: domain.SeverityHigh,
	}}
}

// RunAll runs every detector and maps each finding to the first paragraph
// containing its match. Findings without a match, and matches that cannot
// be located, attach to the top of the document.
func RunAll(text string, paragraphs []string) []domain.Finding {
	var findings []domain.Finding
	findings = append(findings, DetectWrongJurisdiction(text)...)
	findings = append(findings, DetectAmbiguousLanguage(text)...)
	findings = append(findings, DetectMissingSignatureBlock(paragraphs)...)

	for i := range findings {
		findings[i].ParagraphIndex = locateParagraph(paragraphs, findings[i].Match)
	}
	return findings
}

func locateParagraph(paragraphs []string, match string) int {
	if match == "" {
		return 0
	}
	lower := strings.ToLower(match)
	for i, p := range paragraphs {
		if strings.Contains(strings.ToLower(p), lower) {
			return i
		}
	}
	return 0
}
