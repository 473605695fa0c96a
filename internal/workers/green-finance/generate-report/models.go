// internal/workers/green-finance/generate-report/models.go
package generatereport

import (
	"time"

	"green-finance-risk/internal/models"
)

// Input is read from the job variables companyName, company and impact.
type Input = models.ReportRequest

type Output struct {
	RequestID       string           `json:"requestId"`
	CompanyName     string           `json:"companyName"`
	RiskProbability float64          `json:"riskProbability"`
	RiskLevel       models.RiskLevel `json:"riskLevel"`
	Probabilities   []float64        `json:"probabilities"`
	Report          string           `json:"report"`
	GeneratedAt     time.Time        `json:"generatedAt"`
}

// inputVariables are the job variables the worker reads; everything else in
// the process scope is ignored.
var inputVariables = []string{"companyName", "company", "impact"}
