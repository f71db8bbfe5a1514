package interrogation

import (
	"context"
	"strings"
	"unicode"

	"github.com/mavunolabs/shamba/internal/domain"
)

// FreeTextInterrogator collects a single free-text attribute with a minimum
// length check and an optional transform. The save callback owns the narrow
// field-list persistence and the matching in-memory customer mutation.
type FreeTextInterrogator struct {
	key       string
	question  string
	minLen    int
	transform func(string) string
	needed    func(c *domain.Customer) bool
	save      func(ctx context.Context, c *domain.Customer, value string) error
}

// NewFreeText builds a free-text interrogator.
func NewFreeText(key, question string, minLen int, transform func(string) string,
	needed func(c *domain.Customer) bool,
	save func(ctx context.Context, c *domain.Customer, value string) error) *FreeTextInterrogator {
	return &FreeTextInterrogator{
		key: key, question: question, minLen: minLen,
		transform: transform, needed: needed, save: save,
	}
}

// Key names the interrogator.
func (f *FreeTextInterrogator) Key() string { return f.key }

// IsNeeded reports whether the attribute is still missing.
func (f *FreeTextInterrogator) IsNeeded(c *domain.Customer) bool { return f.needed(c) }

// AskOrAnswer runs one exchange.
func (f *FreeTextInterrogator) AskOrAnswer(ctx context.Context, c *domain.Customer, input string, fs *FlowState) (Result, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Continue(f.question), nil
	}
	if len(input) < f.minLen {
		return Continue(tryAgainPrefix + f.question), nil
	}

	value := input
	if f.transform != nil {
		value = f.transform(value)
	}
	if err := f.save(ctx, c, value); err != nil {
		return Result{}, err
	}
	return Complete(), nil
}

// TitleCase normalizes a free-text answer to Title Case, collapsing interior
// whitespace.
func TitleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
