// Package questionnaire loads named survey flow definitions from YAML files.
// Definitions are data: the interrogation engine turns them into survey
// directors at startup.
package questionnaire

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Question kinds understood by the survey interrogator.
const (
	KindText   = "text"
	KindMenu   = "menu"
	KindNumber = "number"
)

// Question is one survey question definition.
type Question struct {
	Key     string            `yaml:"key"`
	Kind    string            `yaml:"kind"`
	Text    map[string]string `yaml:"text"`
	Options []string          `yaml:"options,omitempty"`
	MinLen  int               `yaml:"min_len,omitempty"`
}

// Prompt returns the question text for a language, falling back to the
// definition's default language, then to any available translation.
func (q *Question) Prompt(lang, fallback string) string {
	return pickText(q.Text, lang, fallback)
}

// Quota caps the number of finished respondents per demographic bucket. The
// bucket is the respondent's answer to the named question; once Max finished
// documents share that answer, further respondents in the bucket are cut off
// with Message.
type Quota struct {
	Question string            `yaml:"question"`
	Max      int               `yaml:"max"`
	Message  map[string]string `yaml:"message"`
}

// Definition is one named survey flow.
type Definition struct {
	Title           string            `yaml:"title"`
	DefaultLanguage string            `yaml:"default_language"`
	Greeting        map[string]string `yaml:"greeting"`
	Farewell        map[string]string `yaml:"farewell"`
	Questions       []Question        `yaml:"questions"`
	Quota           *Quota            `yaml:"quota,omitempty"`
}

// GreetingText returns the greeting for a language.
func (d *Definition) GreetingText(lang string) string {
	return pickText(d.Greeting, lang, d.DefaultLanguage)
}

// FarewellText returns the farewell for a language.
func (d *Definition) FarewellText(lang string) string {
	return pickText(d.Farewell, lang, d.DefaultLanguage)
}

// QuotaMessage returns the over-quota message for a language.
func (d *Definition) QuotaMessage(lang string) string {
	if d.Quota == nil {
		return ""
	}
	return pickText(d.Quota.Message, lang, d.DefaultLanguage)
}

// Validate checks the definition for internal consistency.
func (d *Definition) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("survey definition: title is required")
	}
	if len(d.Questions) == 0 {
		return fmt.Errorf("survey %q: at least one question is required", d.Title)
	}

	seen := map[string]bool{}
	for i, q := range d.Questions {
		if strings.TrimSpace(q.Key) == "" {
			return fmt.Errorf("survey %q question %d: key is required", d.Title, i)
		}
		if seen[q.Key] {
			return fmt.Errorf("survey %q: duplicate question key %q", d.Title, q.Key)
		}
		seen[q.Key] = true

		switch q.Kind {
		case KindText, KindNumber:
		case KindMenu:
			if len(q.Options) < 2 {
				return fmt.Errorf("survey %q question %q: menu needs at least 2 options", d.Title, q.Key)
			}
		default:
			return fmt.Errorf("survey %q question %q: unknown kind %q", d.Title, q.Key, q.Kind)
		}
		if len(q.Text) == 0 {
			return fmt.Errorf("survey %q question %q: text is required", d.Title, q.Key)
		}
	}

	if d.Quota != nil {
		if !seen[d.Quota.Question] {
			return fmt.Errorf("survey %q: quota question %q not defined", d.Title, d.Quota.Question)
		}
		if d.Quota.Max <= 0 {
			return fmt.Errorf("survey %q: quota max must be > 0", d.Title)
		}
		if len(d.Quota.Message) == 0 {
			return fmt.Errorf("survey %q: quota message is required", d.Title)
		}
	}
	return nil
}

// Load reads and validates one definition file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read survey definition: %w", err)
	}
	var d Definition
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse survey definition %s: %w", path, err)
	}
	if d.DefaultLanguage == "" {
		d.DefaultLanguage = "en"
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// LoadDir loads every *.yml / *.yaml definition in a directory, sorted by
// file name so director registration order is deterministic.
func LoadDir(dir string) ([]*Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read survey directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yml" || ext == ".yaml" {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	var defs []*Definition
	for _, p := range paths {
		d, err := Load(p)
		if err != nil {
			return nil, err
		}
		defs = append(defs, d)
	}
	return defs, nil
}

func pickText(m map[string]string, lang, fallback string) string {
	if v, ok := m[lang]; ok && v != "" {
		return v
	}
	if v, ok := m[fallback]; ok && v != "" {
		return v
	}
	// Deterministic last resort: first key alphabetically.
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if m[k] != "" {
			return m[k]
		}
	}
	return ""
}
