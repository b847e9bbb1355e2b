// Package recommend maps diagnosis results onto catalog search keywords.
package recommend

import (
	"fmt"
	"strings"

	"github.com/zhouzirui/z-tongue/backend/internal/model/diagnosis"
	"github.com/zhouzirui/z-tongue/backend/internal/model/product"
)

// BuildKeywords assembles the ordered, de-duplicated keyword list used to
// query the catalog. Either argument may be nil.
func BuildKeywords(analysis *diagnosis.TongueAnalysis, report *diagnosis.FinalReport) []string {
	set := newOrderedSet()

	if analysis != nil {
		set.add(colorKeywords[strings.TrimSpace(analysis.TongueColor)]...)
		set.add(coatingKeywords[strings.TrimSpace(analysis.CoatingColor)]...)
		set.add(thicknessKeywords[strings.TrimSpace(analysis.CoatingThickness)]...)
		for _, rule := range shapeKeywords {
			if strings.Contains(analysis.TongueShape, rule.marker) {
				set.add(rule.keywords...)
			}
		}
		for _, area := range analysis.RiskAreas {
			set.add(riskKeywords[strings.TrimSpace(area)]...)
		}
	}

	if report != nil {
		for _, rec := range report.ProductRecommendations {
			set.add(rec.Keywords...)
		}
	}

	return set.items
}

// Justify explains why a product fits the analysis.
func Justify(analysis *diagnosis.TongueAnalysis, p product.Product) string {
	if analysis == nil {
		return noAnalysisJustification
	}

	keywords := make(map[string]struct{}, len(p.Keywords))
	for _, kw := range p.Keywords {
		keywords[kw] = struct{}{}
	}
	ctx := ruleContext{
		tongueColor:  strings.TrimSpace(analysis.TongueColor),
		coatingColor: strings.TrimSpace(analysis.CoatingColor),
		score:        analysis.Score,
		keywords:     keywords,
	}
	for _, rule := range justificationRules {
		if rule.matches(ctx) {
			return rule.text
		}
	}
	return fmt.Sprintf("适合您的%s产品", p.Category)
}

type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{}), items: []string{}}
}

func (s *orderedSet) add(values ...string) {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := s.seen[v]; ok {
			continue
		}
		s.seen[v] = struct{}{}
		s.items = append(s.items, v)
	}
}
