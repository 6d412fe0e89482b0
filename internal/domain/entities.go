package domain

import "time"

// RawDocument is a loadable unit of reference material before splitting.
// Paginated sources produce one RawDocument per page.
type RawDocument struct {
	Source string
	Page   int
	Text   string
}

// Fragment is an immutable chunk of a reference document. Seq is the
// insertion order assigned at index build time and never changes.
type Fragment struct {
	Seq    int    `json:"seq"`
	Source string `json:"source"`
	Page   int    `json:"page,omitempty"`
	Text   string `json:"text"`
}

type ScoredFragment struct {
	Fragment Fragment
	Score    float64
}

// Judgment is the verdict for a single clause. Compliant is nil when the
// system could not determine compliance (no index, no backend, or an
// unusable response).
type Judgment struct {
	Compliant  *bool  `json:"compliant"`
	Issue      string `json:"issue,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
	Citation   string `json:"citation,omitempty"`
}

// Unknown reports whether the judgment carries no verdict.
func (j Judgment) Unknown() bool {
	return j.Compliant == nil
}

// Finding is a rule-based red flag located in a document.
type Finding struct {
	ParagraphIndex int    `json:"paragraph_index"`
	Match          string `json:"match,omitempty"`
	Message        string `json:"message"`
	Severity       string `json:"severity"`
}

// Annotation is a finding enriched with an optional judgment, ready to be
// inserted into a reviewed document.
type Annotation struct {
	ParagraphIndex int    `json:"paragraph_index"`
	FlagText       string `json:"flag_text,omitempty"`
	Comment        string `json:"comment"`
	Severity       string `json:"severity"`
	Suggestion     string `json:"suggestion,omitempty"`
	Citation       string `json:"citation,omitempty"`
}

// ChecklistReport summarizes required-document coverage for a process.
type ChecklistReport struct {
	Process           string   `json:"process"`
	DocumentsUploaded int      `json:"documents_uploaded"`
	RequiredDocuments int      `json:"required_documents"`
	MissingDocuments  []string `json:"missing_documents"`
}

// IndexInfo describes a persisted index.
type IndexInfo struct {
	Model     string
	Dimension int
	Fragments int
	BuiltAt   time.Time
}

const (
	SeverityHigh   = "High"
	SeverityMedium = "Medium"
)
