// Package tongue synthesizes a plausible tongue analysis without a model.
// The result is a pure function of the image fingerprint.
package tongue

import (
	"math"

	"github.com/zhouzirui/z-tongue/backend/internal/model/diagnosis"
)

const (
	baseScore      = 85.0
	minScore       = 50.0
	maxScore       = 98.0
	scoreJitter    = 10.0
	consultBelow   = 70.0
	maxSuggestions = 4
)

// Synthesize derives a deterministic analysis from the image fingerprint.
// Identical fingerprints always produce identical results.
func Synthesize(fingerprint string) diagnosis.TongueAnalysis {
	rng := newLCG(seedFrom(fingerprint))

	color := pick(rng.next(), tongueColors)
	shape := pick(rng.next(), tongueShapes)
	coating := pick(rng.next(), coatingColors)
	thickness := pick(rng.next(), coatingThicknesses)

	score := baseScore +
		scoreDeltas[color] +
		scoreDeltas[shape] +
		scoreDeltas[coating] +
		scoreDeltas[thickness] +
		(rng.next()-0.5)*scoreJitter
	score = math.Max(minScore, math.Min(maxScore, score))

	confidence := 85 + math.Floor(rng.next()*10)

	return diagnosis.TongueAnalysis{
		Score:            math.Floor(score + 0.5),
		TongueColor:      color,
		TongueShape:      shape,
		CoatingColor:     coating,
		CoatingThickness: thickness,
		Suggestions:      suggestionsFor(color, shape, coating, thickness, score),
		Confidence:       confidence,
	}
}

func suggestionsFor(color, shape, coating, thickness string, score float64) []string {
	candidates := append([]string(nil), baselineSuggestions...)
	candidates = append(candidates, colorSuggestions[color]...)
	candidates = append(candidates, shapeSuggestions[shape]...)
	candidates = append(candidates, coatingSuggestions[coating]...)
	candidates = append(candidates, thicknessSuggestions[thickness]...)
	if score < consultBelow {
		candidates = append(candidates, consultSuggestion)
	}

	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, maxSuggestions)
	for _, s := range candidates {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}
