package domain

import (
	"strings"
	"time"
)

// CustomerSurvey is one respondent's answer document for a named survey flow.
// At most one non-abandoned document exists per (customer, title); once
// FinishedAt is set the document is immutable to further writes from the flow.
type CustomerSurvey struct {
	ID         string
	CustomerID string
	Title      string
	Language   string
	Responses  map[string]string
	FinishedAt *time.Time
	// Cancelled marks a document finalized by a quota cutoff rather than by
	// the respondent completing the flow; cancelled documents never count
	// toward quota tallies.
	Cancelled bool
	CreatedAt time.Time
}

// Finished reports whether the survey document has been finalized.
func (s *CustomerSurvey) Finished() bool {
	return s.FinishedAt != nil
}

// Answer returns the recorded answer for a question key, if any.
func (s *CustomerSurvey) Answer(key string) (string, bool) {
	v, ok := s.Responses[key]
	return v, ok
}

// NormalizeSurveyTitle canonicalizes a survey title for case-insensitive
// matching and storage.
func NormalizeSurveyTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}
