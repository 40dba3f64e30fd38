package domain

import (
	_ "embed"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

// CategoryOther is assigned to news types that match no bucket.
const CategoryOther = "Other"

//go:embed categories.yaml
var defaultCategories []byte

type categoryEntry struct {
	Category string   `yaml:"category"`
	Types    []string `yaml:"types"`
}

// Classifier maps free-form news types onto category buckets.
// It is read-only after construction and safe for concurrent use.
type Classifier struct {
	byType     map[string]string
	categories []string
}

// DefaultClassifier returns the classifier built from the embedded table.
func DefaultClassifier() *Classifier {
	c, err := parseClassifier(defaultCategories)
	if err != nil {
		panic(fmt.Sprintf("embedded categories.yaml: %v", err))
	}
	return c
}

// LoadClassifier reads a category table in the embedded YAML format.
func LoadClassifier(r io.Reader) (*Classifier, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read category table: %w", err)
	}
	return parseClassifier(data)
}

func parseClassifier(data []byte) (*Classifier, error) {
	var entries []categoryEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse category table: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("parse category table: no categories defined")
	}

	c := &Classifier{byType: make(map[string]string)}
	for _, e := range entries {
		name := strings.TrimSpace(e.Category)
		if name == "" {
			return nil, fmt.Errorf("parse category table: entry with empty category")
		}
		c.categories = append(c.categories, name)
		for _, t := range e.Types {
			key := foldKey(t)
			if prev, dup := c.byType[key]; dup && prev != name {
				return nil, fmt.Errorf("parse category table: type %q listed under %q and %q", t, prev, name)
			}
			c.byType[key] = name
		}
	}
	c.categories = append(c.categories, CategoryOther)
	return c, nil
}

// Classify returns the bucket for a news type, or CategoryOther.
func (c *Classifier) Classify(newsType string) string {
	if cat, ok := c.byType[foldKey(newsType)]; ok {
		return cat
	}
	return CategoryOther
}

// Categories lists every bucket in table order, ending with CategoryOther.
func (c *Classifier) Categories() []string {
	out := make([]string, len(c.categories))
	copy(out, c.categories)
	return out
}

// foldKey trims and Unicode case-folds s for case-insensitive comparison.
// A Caser holds state, so one is built per call.
func foldKey(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
