package interrogation

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mavunolabs/shamba/internal/domain"
)

// MenuOption is one numbered choice in a fixed-choice menu.
type MenuOption struct {
	Label string
	Value string
}

// MenuInterrogator presents a numbered list and accepts a selection by
// number. Out-of-range or non-numeric selections are rejected and the same
// menu is shown again; nothing is persisted for a rejected answer.
type MenuInterrogator struct {
	key      string
	question string
	options  []MenuOption
	needed   func(c *domain.Customer) bool
	save     func(ctx context.Context, c *domain.Customer, value string) error
}

// NewMenu builds a fixed-choice menu interrogator.
func NewMenu(key, question string, options []MenuOption,
	needed func(c *domain.Customer) bool,
	save func(ctx context.Context, c *domain.Customer, value string) error) *MenuInterrogator {
	return &MenuInterrogator{key: key, question: question, options: options, needed: needed, save: save}
}

// Key names the interrogator.
func (m *MenuInterrogator) Key() string { return m.key }

// IsNeeded reports whether the attribute is still missing.
func (m *MenuInterrogator) IsNeeded(c *domain.Customer) bool { return m.needed(c) }

func (m *MenuInterrogator) menu() string {
	var b strings.Builder
	b.WriteString(m.question)
	for i, opt := range m.options {
		b.WriteString(fmt.Sprintf("\n%d. %s", i+1, opt.Label))
	}
	return b.String()
}

// AskOrAnswer runs one exchange.
func (m *MenuInterrogator) AskOrAnswer(ctx context.Context, c *domain.Customer, input string, fs *FlowState) (Result, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Continue(m.menu()), nil
	}

	n, err := strconv.Atoi(input)
	if err != nil || n < 1 || n > len(m.options) {
		return Continue(tryAgainPrefix + m.menu()), nil
	}

	if err := m.save(ctx, c, m.options[n-1].Value); err != nil {
		return Result{}, err
	}
	return Complete(), nil
}
