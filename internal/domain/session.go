package domain

import (
	"time"
)

// FlowTypeRegistration is the flow-type discriminator for the default
// registration questionnaire. Named surveys use SurveyFlowType.
const FlowTypeRegistration = "registration"

// SurveyFlowType builds the flow-type discriminator for a named survey.
func SurveyFlowType(title string) string {
	return "survey:" + NormalizeSurveyTitle(title)
}

// DialogSession is the persisted state of one logical USSD dialog, keyed by
// phone number + flow type. State is an opaque serialized snapshot of the
// session manager; the store never interprets it.
type DialogSession struct {
	ID        string
	Phone     string
	FlowType  string
	State     []byte
	Finished  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Stale reports whether the session has been abandoned: not touched within
// the staleness threshold. Stale sessions are silently superseded by a fresh
// session on next contact.
func (s *DialogSession) Stale(threshold time.Duration, now time.Time) bool {
	return now.Sub(s.UpdatedAt) > threshold
}

// Live reports whether the session may still be resumed.
func (s *DialogSession) Live(threshold time.Duration, now time.Time) bool {
	return !s.Finished && !s.Stale(threshold, now)
}
