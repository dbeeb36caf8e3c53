package questionnaire

// #region imports
import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// #endregion

// #region types

// Question is one entry of the fixed questionnaire.
type Question struct {
	ID       string   `yaml:"id" json:"id"`
	Prompt   string   `yaml:"prompt" json:"prompt"`
	Options  []string `yaml:"options,omitempty" json:"options,omitempty"`
	Required bool     `yaml:"required" json:"required"`
}

// Definition is the ordered questionnaire.
type Definition struct {
	Questions []Question `yaml:"questions" json:"questions"`
}

// #endregion

// #region default

// Default returns the built-in questionnaire. Option texts are the
// canonical phrases the inference engine's lookup tables key on.
func Default() *Definition {
	return &Definition{Questions: []Question{
		{
			ID:     "v1",
			Prompt: "What matters most to you when you give?",
			Options: []string{
				"Helping people who cannot help themselves",
				"Making the system fairer for everyone",
				"Standing by my own community",
				"Honoring tradition and faith",
			},
			Required: true,
		},
		{
			ID:     "v2",
			Prompt: "Which statement resonates most with you?",
			Options: []string{
				"Care for the most vulnerable",
				"Reward should follow effort",
				"Freedom to choose beats rules",
				"Respect for institutions keeps us safe",
			},
			Required: true,
		},
		{
			ID:     "v3",
			Prompt: "Which conviction do you hold most strongly?",
			Options: []string{
				"Loyalty to the people who raised me",
				"Some things are sacred and should not be traded",
				"Nobody should tell me how to live",
				"Protecting the weak is a duty",
			},
			Required: true,
		},
		{
			ID:     "g1",
			Prompt: "What kind of giving feels most rewarding?",
			Options: []string{
				"Seeing direct impact on specific individuals",
				"Funding structural reform",
				"Supporting my local community",
				"Building something that outlasts me",
			},
			Required: true,
		},
		{
			ID:     "g2",
			Prompt: "How do you decide where to give?",
			Options: []string{
				"Evidence and measurable outcomes",
				"My heart tells me",
				"Where my friends and family give",
				"Causes my faith calls me to",
			},
			Required: true,
		},
		{
			ID:       "c1",
			Prompt:   "Tell me about the causes closest to your heart, in your own words.",
			Required: true,
		},
		{
			ID:       "r1",
			Prompt:   "How would you describe your appetite for risk: low, medium, or high?",
			Required: true,
		},
	}}
}

// #endregion

// #region load

// Parse decodes and validates a questionnaire definition payload.
func Parse(data []byte) (*Definition, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("questionnaire: definition payload is empty")
	}
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("questionnaire: decode definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// LoadFile reads a YAML questionnaire definition from disk.
func LoadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("questionnaire: read %s: %w", path, err)
	}
	def, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("questionnaire: %s: %w", path, err)
	}
	return def, nil
}

// Validate checks structural invariants of a definition.
func (d *Definition) Validate() error {
	if len(d.Questions) == 0 {
		return fmt.Errorf("questionnaire: no questions defined")
	}
	seen := make(map[string]struct{}, len(d.Questions))
	for i, q := range d.Questions {
		id := strings.TrimSpace(q.ID)
		if id == "" {
			return fmt.Errorf("questionnaire: question %d missing id", i)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("questionnaire: duplicate question id %q", id)
		}
		seen[id] = struct{}{}
		if strings.TrimSpace(q.Prompt) == "" {
			return fmt.Errorf("questionnaire: question %q missing prompt", id)
		}
	}
	return nil
}

// #endregion

// #region progression

// FirstUnanswered scans the definition in order and returns the first
// required question whose ID is not in answered, or nil when complete.
func (d *Definition) FirstUnanswered(answered map[string]bool) *Question {
	for i := range d.Questions {
		q := &d.Questions[i]
		if q.Required && !answered[q.ID] {
			return q
		}
	}
	return nil
}

// Complete reports whether every required question has an answer.
func (d *Definition) Complete(answered map[string]bool) bool {
	return d.FirstUnanswered(answered) == nil
}

// Render formats a question for the donor, listing options when present.
func (q *Question) Render() string {
	if len(q.Options) == 0 {
		return q.Prompt
	}
	var b strings.Builder
	b.WriteString(q.Prompt)
	for _, opt := range q.Options {
		b.WriteString("\n  - ")
		b.WriteString(opt)
	}
	return b.String()
}

// #endregion
