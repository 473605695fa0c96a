package models

import (
	"fmt"
	"math"
	"strings"

	apperrors "green-finance-risk/internal/common/errors"
)

// Bounds enforced at the input boundary (CLI flags, HTTP body, job variables).
const (
	ImpactScoreMin        = 0.0
	ImpactScoreMax        = 100.0
	CertificationCycleMin = 0
	CertificationCycleMax = 10

	// FeatureCount is the width of the classifier input.
	FeatureCount = 5
)

// ImpactProfile is the request-scoped set of numeric classifier inputs.
type ImpactProfile struct {
	Community          float64 `json:"community"`
	Environment        float64 `json:"environment"`
	Customers          float64 `json:"customers"`
	Governance         float64 `json:"governance"`
	CertificationCycle int     `json:"certificationCycle"`
}

// DefaultImpactProfile returns the values the input form starts with.
func DefaultImpactProfile() ImpactProfile {
	return ImpactProfile{
		Community:          25.0,
		Environment:        30.0,
		Customers:          35.0,
		Governance:         40.0,
		CertificationCycle: 0,
	}
}

// Features returns the raw feature row in training column order.
func (p ImpactProfile) Features() []float64 {
	return []float64{
		p.Community,
		p.Environment,
		p.Customers,
		p.Governance,
		float64(p.CertificationCycle),
	}
}

// Validate checks every field against its range. The preprocessor does not
// repeat these checks.
func (p ImpactProfile) Validate() error {
	var problems []string

	scores := []struct {
		name  string
		value float64
	}{
		{"community", p.Community},
		{"environment", p.Environment},
		{"customers", p.Customers},
		{"governance", p.Governance},
	}
	for _, s := range scores {
		if math.IsNaN(s.value) || math.IsInf(s.value, 0) || s.value < ImpactScoreMin || s.value > ImpactScoreMax {
			problems = append(problems, fmt.Sprintf("%s must be within [%g, %g], got %v", s.name, ImpactScoreMin, ImpactScoreMax, s.value))
		}
	}
	if p.CertificationCycle < CertificationCycleMin || p.CertificationCycle > CertificationCycleMax {
		problems = append(problems, fmt.Sprintf("certificationCycle must be within [%d, %d], got %d",
			CertificationCycleMin, CertificationCycleMax, p.CertificationCycle))
	}

	if len(problems) > 0 {
		return apperrors.NewInvalidInputError(strings.Join(problems, "; "))
	}
	return nil
}

// CompanyContext is the read-only descriptive record of one company.
type CompanyContext struct {
	CompanyName         string `json:"companyName"`
	Country             string `json:"country"`
	IndustryCategory    string `json:"industryCategory"`
	Sector              string `json:"sector"`
	Industry            string `json:"industry"`
	ProductsAndServices string `json:"productsAndServices"`
	Description         string `json:"description"`
}

// ScaledFeatureVector is one scaled sample ready for the classifier.
type ScaledFeatureVector []float64
