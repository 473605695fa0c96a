package models

import (
	"strconv"
	"strings"
)

// Risk level thresholds applied to RiskEstimate.Primary.
const (
	MediumRiskThreshold = 0.4
	HighRiskThreshold   = 0.7

	// PositiveClass is the label of the high-risk class.
	PositiveClass = 1
)

type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "Low"
	RiskLevelMedium RiskLevel = "Medium"
	RiskLevelHigh   RiskLevel = "High"
)

// RiskEstimate is the classifier's probability distribution for one sample.
type RiskEstimate struct {
	Classes       []int     `json:"classes"`
	Probabilities []float64 `json:"probabilities"`
	Primary       float64   `json:"riskProbability"`
}

// NewRiskEstimate picks the positive class probability as Primary, falling
// back to the last class when no class is labelled 1.
func NewRiskEstimate(classes []int, probabilities []float64) RiskEstimate {
	est := RiskEstimate{
		Classes:       append([]int(nil), classes...),
		Probabilities: append([]float64(nil), probabilities...),
	}
	if len(probabilities) == 0 {
		return est
	}
	est.Primary = probabilities[len(probabilities)-1]
	for i, c := range classes {
		if c == PositiveClass && i < len(probabilities) {
			est.Primary = probabilities[i]
			break
		}
	}
	return est
}

func (r RiskEstimate) Level() RiskLevel {
	switch {
	case r.Primary < MediumRiskThreshold:
		return RiskLevelLow
	case r.Primary < HighRiskThreshold:
		return RiskLevelMedium
	default:
		return RiskLevelHigh
	}
}

// Distribution renders the probabilities in single-sample matrix form, e.g.
// "[[0.28 0.72]]".
func (r RiskEstimate) Distribution() string {
	parts := make([]string, len(r.Probabilities))
	for i, p := range r.Probabilities {
		parts[i] = formatProbability(p)
	}
	return "[[" + strings.Join(parts, " ") + "]]"
}

// PrimaryString renders Primary without trailing zeros, e.g. "0.72".
func (r RiskEstimate) PrimaryString() string {
	return formatProbability(r.Primary)
}

func (r RiskEstimate) String() string {
	return r.Distribution() + " (high-risk probability " + r.PrimaryString() + ", " + string(r.Level()) + " Risk)"
}

func formatProbability(p float64) string {
	return strconv.FormatFloat(p, 'g', -1, 64)
}
