// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package similarity scores the likelihood that two bibliographic records
// denote the same underlying work. Scores are symmetric, in [0, 1], and
// blended from per-field measures; deciding what counts as a duplicate is
// the caller's policy.
//
// Implements: prd003-similarity (R1-R4);
//
//	docs/ARCHITECTURE § Similarity.
package similarity

import (
	"github.com/pdiddy/review-engine/pkg/types"
)

// Weights control the per-field contribution to the blended score.
type Weights struct {
	Author    float64
	Title     float64
	Year      float64
	Container float64
}

// DefaultWeights returns the standard blend. Titles dominate; the venue and
// year break ties between same-title works.
func DefaultWeights() Weights {
	return Weights{Author: 0.25, Title: 0.5, Year: 0.1, Container: 0.15}
}

// FromConfig maps settings weights onto a Weights value.
func FromConfig(cfg types.SimilarityConfig) Weights {
	return Weights{
		Author:    cfg.AuthorWeight,
		Title:     cfg.TitleWeight,
		Year:      cfg.YearWeight,
		Container: cfg.ContainerWeight,
	}
}

// FieldScore is one field's contribution to a blended score.
type FieldScore struct {
	Field      string  `json:"field" yaml:"field"`
	Similarity float64 `json:"similarity" yaml:"similarity"`
	Weight     float64 `json:"weight" yaml:"weight"`

	// Compared is false when the field was absent from both records and
	// therefore dropped from the blend.
	Compared bool `json:"compared" yaml:"compared"`
}

// Breakdown itemizes the per-field similarities behind a score.
type Breakdown struct {
	Fields []FieldScore `json:"fields" yaml:"fields"`
	Total  float64      `json:"total" yaml:"total"`
}

// Scorer blends per-field similarities under a fixed weight set.
type Scorer struct {
	weights Weights
}

// New returns a scorer for the given weights. A zero weight set falls back
// to the defaults.
func New(w Weights) *Scorer {
	if w.Author+w.Title+w.Year+w.Container <= 0 {
		w = DefaultWeights()
	}
	return &Scorer{weights: w}
}

// Score returns the blended similarity of two records. Fields absent from
// both records are dropped and the remaining weights renormalized, so a pair
// sharing only a title is still comparable (R4.2). A one-sided absence
// counts as full dissimilarity for that field.
func (s *Scorer) Score(a, b *types.Record) float64 {
	return s.Explain(a, b).Total
}

// Explain returns the per-field breakdown behind Score. The field order is
// fixed: author, title, year, container.
func (s *Scorer) Explain(a, b *types.Record) Breakdown {
	fields := []FieldScore{
		compareField(types.FieldAuthor, s.weights.Author,
			authorValue(a), authorValue(b), tokenSortRatio),
		compareField(types.FieldTitle, s.weights.Title,
			fieldValue(a, types.FieldTitle), fieldValue(b, types.FieldTitle), ratio),
		compareField(types.FieldYear, s.weights.Year,
			fieldValue(a, types.FieldYear), fieldValue(b, types.FieldYear), yearSimilarity),
		compareField("container", s.weights.Container,
			a.Container(), b.Container(), partialRatio),
	}
	var total, weightSum float64
	for _, f := range fields {
		if !f.Compared {
			continue
		}
		total += f.Similarity * f.Weight
		weightSum += f.Weight
	}
	breakdown := Breakdown{Fields: fields}
	if weightSum > 0 {
		breakdown.Total = total / weightSum
	}
	return breakdown
}

func compareField(name string, weight float64, a, b string, measure func(a, b string) float64) FieldScore {
	score := FieldScore{Field: name, Weight: weight}
	if a == "" && b == "" {
		return score
	}
	score.Compared = true
	if a == "" || b == "" {
		return score
	}
	score.Similarity = measure(Normalize(a), Normalize(b))
	return score
}

func fieldValue(r *types.Record, key string) string {
	if !r.FieldPresent(key) {
		return ""
	}
	return r.Field(key)
}

func authorValue(r *types.Record) string {
	return fieldValue(r, types.FieldAuthor)
}

// yearSimilarity is exact-or-edit-distance: equal years score 1, near misses
// (digit typos, off-by-one editions) degrade smoothly.
func yearSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	return ratio(a, b)
}
