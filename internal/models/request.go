package models

// ReportRequest is the payload accepted by the HTTP API and the workflow
// worker. Company, when present, is used as-is instead of a catalog lookup.
type ReportRequest struct {
	CompanyName string          `json:"companyName,omitempty"`
	Company     *CompanyContext `json:"company,omitempty"`
	Impact      *ImpactProfile  `json:"impact,omitempty"`
}

// Profile returns the requested impact profile, or the form defaults when
// none was sent.
func (r ReportRequest) Profile() ImpactProfile {
	if r.Impact == nil {
		return DefaultImpactProfile()
	}
	return *r.Impact
}

// ReportResponse is what a successful run returns to callers.
type ReportResponse struct {
	RequestID       string    `json:"requestId"`
	CompanyName     string    `json:"companyName"`
	RiskProbability float64   `json:"riskProbability"`
	RiskLevel       RiskLevel `json:"riskLevel"`
	Probabilities   []float64 `json:"probabilities"`
	Report          string    `json:"report"`
}
