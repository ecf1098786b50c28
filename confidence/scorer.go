package confidence

import (
	"fmt"
	"math"

	"local-guide/reasoning"
	"local-guide/retrieval"
)

// Component weights. They must sum to one.
const (
	ContextAvailabilityWeight     = 0.30
	QuerySpecificityWeight        = 0.20
	ContextRelevanceWeight        = 0.25
	InformationCompletenessWeight = 0.15
	ResponseQualityWeight         = 0.10
)

// DefaultThreshold is the overall score below which the system asks a
// clarifying question instead of answering.
const DefaultThreshold = 0.5

func init() {
	sum := ContextAvailabilityWeight + QuerySpecificityWeight + ContextRelevanceWeight +
		InformationCompletenessWeight + ResponseQualityWeight
	if math.Abs(sum-1) > 1e-9 {
		panic(fmt.Sprintf("confidence: component weights sum to %v, want 1", sum))
	}
}

// Components are the five scored dimensions, each in [0,1].
type Components struct {
	ContextAvailability     float64 `json:"context_availability"`
	QuerySpecificity        float64 `json:"query_specificity"`
	ContextRelevance        float64 `json:"context_relevance"`
	InformationCompleteness float64 `json:"information_completeness"`
	ResponseQuality         float64 `json:"response_quality"`
}

// Combine returns the weighted sum of the components.
func (c Components) Combine() float64 {
	return ContextAvailabilityWeight*c.ContextAvailability +
		QuerySpecificityWeight*c.QuerySpecificity +
		ContextRelevanceWeight*c.ContextRelevance +
		InformationCompletenessWeight*c.InformationCompleteness +
		ResponseQualityWeight*c.ResponseQuality
}

// Level buckets an overall score for display.
type Level string

const (
	VeryLow  Level = "very_low"
	Low      Level = "low"
	Medium   Level = "medium"
	High     Level = "high"
	VeryHigh Level = "very_high"
)

// LevelOf maps a score onto its bucket in steps of 0.2.
func LevelOf(score float64) Level {
	switch {
	case score >= 0.8:
		return VeryHigh
	case score >= 0.6:
		return High
	case score >= 0.4:
		return Medium
	case score >= 0.2:
		return Low
	default:
		return VeryLow
	}
}

// Score is the scorer's verdict on one answer.
type Score struct {
	Components     Components `json:"components"`
	Overall        float64    `json:"overall"`
	Level          Level      `json:"level"`
	MeetsThreshold bool       `json:"meets_threshold"`
}

// Scorer rates how much an answer draft can be trusted. It holds no
// per-query state and is safe for concurrent use.
type Scorer struct {
	threshold float64
}

func NewScorer(threshold float64) *Scorer {
	return &Scorer{threshold: threshold}
}

// Threshold returns the configured answer threshold.
func (s *Scorer) Threshold() float64 {
	return s.threshold
}

// Score rates a draft. Empty retrieval scores zero on every component.
func (s *Scorer) Score(res retrieval.Result, out reasoning.Result) Score {
	var c Components
	if !res.Empty() {
		c = Components{
			ContextAvailability:     availability(res.Analysis),
			QuerySpecificity:        specificity(res.Query, res.Analysis),
			ContextRelevance:        clamp(out.TopScore()),
			InformationCompleteness: completeness(res.Analysis, out),
			ResponseQuality:         quality(out),
		}
	}
	overall := clamp(c.Combine())
	return Score{
		Components:     c,
		Overall:        overall,
		Level:          LevelOf(overall),
		MeetsThreshold: overall >= s.threshold,
	}
}

// availability is the share of detected intents the knowledge base covers.
func availability(a retrieval.Analysis) float64 {
	if len(a.Intents) == 0 {
		return 1
	}
	return float64(len(a.PresentIntents)) / float64(len(a.Intents))
}

// specificity rewards a reasonable length, a concrete subject, a time and
// a place.
func specificity(q retrieval.Query, a retrieval.Analysis) float64 {
	var score float64
	switch {
	case a.WordCount == 0:
	case a.WordCount <= 2:
		score += 0.1
	case a.WordCount <= 20:
		score += 0.3
	default:
		score += 0.2
	}
	if len(a.ConcreteNouns) > 0 || len(a.Intents) > 0 {
		score += 0.3
	}
	if q.HasClock || q.HasDate {
		score += 0.2
	}
	if a.LocationRequested() {
		score += 0.2
	}
	return clamp(score)
}

// completeness is the share of requested attributes the draft supplies.
// With nothing specific requested a non-empty draft is complete.
func completeness(a retrieval.Analysis, out reasoning.Result) float64 {
	if len(out.Used) == 0 {
		return 0
	}
	requested, missing := reasoning.MissingAttributes(a, out.Used)
	if requested == 0 {
		return 1
	}
	return float64(requested-len(missing)) / float64(requested)
}

func quality(out reasoning.Result) float64 {
	if out.AnswerDraft == nil || *out.AnswerDraft == "" {
		return 0
	}
	return 1
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
