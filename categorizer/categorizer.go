// Package categorizer assigns one of the fixed expense categories to a free
// text description. A remote completion model is asked first when one is
// configured; the embedded keyword table is the fallback.
package categorizer

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"budgettracker/logging"
	"budgettracker/models"

	"gopkg.in/yaml.v3"
)

//go:embed keywords.yaml
var keywordsYAML []byte

// Completer returns a model's answer to a single prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Rule maps a category to the lowercase substrings that select it.
type Rule struct {
	Category models.Category `yaml:"category"`
	Keywords []string        `yaml:"keywords"`
}

type keywordFile struct {
	Rules []Rule `yaml:"rules"`
}

// ParseRules reads a keyword table. Every category must be one of the fixed
// labels.
func ParseRules(data []byte) ([]Rule, error) {
	var file keywordFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse keyword table: %w", err)
	}
	for i, r := range file.Rules {
		if _, ok := models.ParseCategory(string(r.Category)); !ok {
			return nil, fmt.Errorf("keyword table rule %d: unknown category %q", i, r.Category)
		}
		for j, k := range r.Keywords {
			file.Rules[i].Keywords[j] = strings.ToLower(k)
		}
	}
	return file.Rules, nil
}

// DefaultRules returns the embedded keyword table.
func DefaultRules() []Rule {
	rules, err := ParseRules(keywordsYAML)
	if err != nil {
		panic(err)
	}
	return rules
}

type Categorizer struct {
	completer Completer
	provider  string
	rules     []Rule
}

// New returns a Categorizer. A nil completer means keywords only.
func New(completer Completer, provider string) *Categorizer {
	return &Categorizer{
		completer: completer,
		provider:  provider,
		rules:     DefaultRules(),
	}
}

// Categorize never fails: any completion problem falls back to keywords.
func (c *Categorizer) Categorize(ctx context.Context, description string) models.Category {
	if strings.TrimSpace(description) == "" || c.completer == nil {
		return c.ByKeywords(description)
	}

	log := logging.FromContext(ctx).
		WithField(logging.FieldComponent, logging.ComponentCategorize).
		WithField(logging.FieldProvider, c.provider)

	answer, err := c.completer.Complete(ctx, Prompt(description))
	if err != nil {
		log.WithError(err).Warn("Completion failed, using keyword table")
		return c.ByKeywords(description)
	}

	category, ok := models.ParseCategory(strings.TrimSpace(answer))
	if !ok {
		log.WithField("answer", answer).Debug("Completion returned an unknown category, using keyword table")
		return c.ByKeywords(description)
	}
	return category
}

// ByKeywords returns the first category whose keywords occur in the
// lowercased description, or Autre.
func (c *Categorizer) ByKeywords(description string) models.Category {
	return matchKeywords(c.rules, description)
}

func matchKeywords(rules []Rule, description string) models.Category {
	if description == "" {
		return models.CategoryOther
	}
	desc := strings.ToLower(description)
	for _, r := range rules {
		for _, k := range r.Keywords {
			if strings.Contains(desc, k) {
				return r.Category
			}
		}
	}
	return models.CategoryOther
}

// Prompt builds the single-label classification request.
func Prompt(description string) string {
	labels := make([]string, len(models.Categories))
	for i, c := range models.Categories {
		labels[i] = string(c)
	}
	return fmt.Sprintf("Catégorise cette dépense en UNE SEULE catégorie parmi: %s.\n\n"+
		"Description de la dépense: \"%s\"\n\n"+
		"Réponds UNIQUEMENT par le nom de la catégorie, rien d'autre.",
		strings.Join(labels, ", "), description)
}
