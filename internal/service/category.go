package service

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

type Category string

const (
	CategoryCGL  Category = "cgl"
	CategoryCPO  Category = "cpo"
	CategoryCHSL Category = "chsl"
)

// CategorySpec is what the question provider needs to know about a category.
type CategorySpec struct {
	Category     Category
	Title        string
	Topic        string
	Instructions string
}

var categorySpecs = []CategorySpec{
	{
		Category:     CategoryCGL,
		Title:        "SSC CGL General Awareness Quiz",
		Topic:        "General Awareness (History, Geography, Polity, Science, Current Affairs)",
		Instructions: "Ensure the questions are distinct and challenging, suitable for competitive exam preparation.",
	},
	{
		Category:     CategoryCPO,
		Title:        "SSC CPO General Intelligence Quiz",
		Topic:        "General Intelligence and Reasoning",
		Instructions: "Ensure the questions test analytical and logical reasoning skills.",
	},
	{
		Category:     CategoryCHSL,
		Title:        "SSC CHSL English Language Quiz",
		Topic:        "English Language (Synonyms, Antonyms, Idioms, Grammar, Sentence Improvement)",
		Instructions: "Ensure the questions are distinct and suitable for the CHSL level.",
	},
}

// Categories returns the supported categories in menu order.
func Categories() []CategorySpec {
	out := make([]CategorySpec, len(categorySpecs))
	copy(out, categorySpecs)
	return out
}

// ParseCategory resolves a user supplied tag. There is no fallback category.
func ParseCategory(raw string) (CategorySpec, error) {
	tag := Category(strings.ToLower(strings.TrimSpace(raw)))
	spec, ok := lo.Find(categorySpecs, func(s CategorySpec) bool {
		return s.Category == tag
	})
	if !ok {
		return CategorySpec{}, fmt.Errorf("%w: %q", ErrInvalidCategory, raw)
	}
	return spec, nil
}

// Label is the upper-case tag, e.g. "CGL".
func (c Category) Label() string {
	return strings.ToUpper(string(c))
}
