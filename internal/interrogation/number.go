package interrogation

import (
	"context"
	"strconv"
	"strings"

	"github.com/mavunolabs/shamba/internal/domain"
)

// NumberInterrogator collects a single non-negative numeric attribute.
type NumberInterrogator struct {
	key      string
	question string
	needed   func(c *domain.Customer) bool
	save     func(ctx context.Context, c *domain.Customer, value float64) error
}

// NewNumber builds a numeric interrogator.
func NewNumber(key, question string,
	needed func(c *domain.Customer) bool,
	save func(ctx context.Context, c *domain.Customer, value float64) error) *NumberInterrogator {
	return &NumberInterrogator{key: key, question: question, needed: needed, save: save}
}

// Key names the interrogator.
func (ni *NumberInterrogator) Key() string { return ni.key }

// IsNeeded reports whether the attribute is still missing.
func (ni *NumberInterrogator) IsNeeded(c *domain.Customer) bool { return ni.needed(c) }

// AskOrAnswer runs one exchange.
func (ni *NumberInterrogator) AskOrAnswer(ctx context.Context, c *domain.Customer, input string, fs *FlowState) (Result, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Continue(ni.question), nil
	}

	value, err := strconv.ParseFloat(input, 64)
	if err != nil || value < 0 {
		return Continue(tryAgainPrefix + ni.question), nil
	}

	if err := ni.save(ctx, c, value); err != nil {
		return Result{}, err
	}
	return Complete(), nil
}
