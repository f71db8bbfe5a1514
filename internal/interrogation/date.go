package interrogation

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/mavunolabs/shamba/internal/domain"
)

// Birthday anchor for year-only answers: customers often know only their
// birth year, so "1985" resolves to 1985-07-01 (mid-year).
const (
	birthdayAnchorMonth = time.July
	birthdayAnchorDay   = 1
)

var (
	yearOnlyPattern = regexp.MustCompile(`^[0-9]{4}$`)
	dateSeparators  = strings.NewReplacer(".", "-", "/", "-", " ", "-")
)

var dateLayouts = []string{
	"2-Jan-2006",
	"2-January-2006",
	"2-1-2006",
	"2006-1-2",
}

// DateInterrogator collects a calendar date, parsing several common formats
// leniently. In birthday mode a bare four-digit year is accepted and
// resolved to the anchor date; otherwise year-only input is rejected as too
// short.
type DateInterrogator struct {
	key      string
	question string
	birthday bool
	needed   func(c *domain.Customer) bool
	save     func(ctx context.Context, c *domain.Customer, value time.Time) error
}

// NewDate builds a date interrogator.
func NewDate(key, question string, birthday bool,
	needed func(c *domain.Customer) bool,
	save func(ctx context.Context, c *domain.Customer, value time.Time) error) *DateInterrogator {
	return &DateInterrogator{key: key, question: question, birthday: birthday, needed: needed, save: save}
}

// Key names the interrogator.
func (d *DateInterrogator) Key() string { return d.key }

// IsNeeded reports whether the attribute is still missing.
func (d *DateInterrogator) IsNeeded(c *domain.Customer) bool { return d.needed(c) }

// AskOrAnswer runs one exchange.
func (d *DateInterrogator) AskOrAnswer(ctx context.Context, c *domain.Customer, input string, fs *FlowState) (Result, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Continue(d.question), nil
	}

	when, ok := d.parse(input)
	if !ok {
		return Continue(tryAgainPrefix + d.question), nil
	}

	if err := d.save(ctx, c, when); err != nil {
		return Result{}, err
	}
	return Complete(), nil
}

func (d *DateInterrogator) parse(input string) (time.Time, bool) {
	if yearOnlyPattern.MatchString(input) {
		if !d.birthday {
			// A bare year is too short for a full date answer.
			return time.Time{}, false
		}
		year, err := strconv.Atoi(input)
		if err != nil {
			return time.Time{}, false
		}
		return time.Date(year, birthdayAnchorMonth, birthdayAnchorDay, 0, 0, 0, 0, time.UTC), true
	}
	return ParseLenientDate(input)
}

// ParseLenientDate accepts day-month-year dates with "-", ".", "/" or space
// separators and either numeric or named months ("11-Dec-2021",
// "11 12 2021"). ISO year-first input is also accepted.
func ParseLenientDate(input string) (time.Time, bool) {
	norm := dateSeparators.Replace(strings.TrimSpace(input))
	for strings.Contains(norm, "--") {
		norm = strings.ReplaceAll(norm, "--", "-")
	}
	norm = strings.Trim(norm, "-")
	if len(norm) < 5 {
		return time.Time{}, false
	}

	// Canonicalize a named month token so "dec"/"DEC" parse like "Dec".
	parts := strings.Split(norm, "-")
	for i, p := range parts {
		if p != "" && !isDigits(p) {
			r := []rune(strings.ToLower(p))
			r[0] = unicode.ToUpper(r[0])
			parts[i] = string(r)
		}
	}
	norm = strings.Join(parts, "-")

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, norm, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
