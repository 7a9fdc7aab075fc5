package catalog

import (
	"strings"

	"github.com/wushici/exhibit-kit/internal/config"
)

// SeriesClassifier infers a series from an artifact name when the index has none.
type SeriesClassifier struct {
	rules    []config.SeriesRule
	fallback string
}

// NewSeriesClassifier creates a classifier. Rules are tried in order.
func NewSeriesClassifier(rules []config.SeriesRule, fallback string) *SeriesClassifier {
	return &SeriesClassifier{rules: rules, fallback: fallback}
}

// Classify returns the series of the first matching rule, else the fallback.
func (c *SeriesClassifier) Classify(name string) string {
	for _, rule := range c.rules {
		for _, p := range rule.Prefixes {
			if strings.HasPrefix(name, p) {
				return rule.Series
			}
		}
		for _, s := range rule.Suffixes {
			if strings.HasSuffix(name, s) {
				return rule.Series
			}
		}
	}
	return c.fallback
}
