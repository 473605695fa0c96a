// Package report builds the Green Finance Advisor prompt and turns the
// completion service's answer into a diagnostic report.
package report

import (
	"fmt"
	"strconv"
	"strings"

	"green-finance-risk/internal/companies"
	"green-finance-risk/internal/models"
)

const promptHeader = `You are a Green Finance Advisor specializing in evaluating companies based on sustainability impact areas,
green finance readiness, and risk probabilities predicted by an ML model. Your role is to analyze the provided
data, including ML output, to generate a comprehensive, actionable report highlighting the company's strengths,
areas for improvement, risk levels, and certification recommendations.

**Instructions:**
1. Analyze the provided data, including the ML Model's Risk Probability, to create a structured Green Finance Diagnostic Report.
2. Integrate the ML output into your assessment, particularly in identifying risks and areas for improvement.
3. Ensure the report is professional, clear, and actionable for decision-makers.
4. Avoid technical jargon and maintain accessibility while ensuring accuracy.

**Input Data**:
`

const promptSections = `
**Output Format**:

1. **Company Overview**:
    - Provide a brief summary of the company, including its name, location, industry, and product/service offerings.
    Example:
    "The company GreenTech Solutions operates in the Renewable Energy sector in Germany, providing solar and wind power solutions to industrial clients."

2. **ML Risk Probability**:
    Highlight the ML-predicted risk probability and interpret its significance.
    Example:
    - Risk Probability: 0.72 (High Risk)
    "The ML model predicts a 72% probability of sustainability-related risks, indicating a need for focused interventions in governance and environmental impact areas."

3. **Sustainability Impact Areas**:
    Assess the company's performance in the following areas:
    - **Community**: Highlight initiatives benefiting local communities, such as employment generation or educational programs.
    - **Environment**: Discuss environmental practices, like emissions reductions or renewable energy use.
    - **Customers**: Evaluate customer-focused sustainability measures, such as product lifecycle assessments or ethical sourcing.
    - **Governance**: Examine the company's governance practices, including transparency and ethical policies.

4. **Key Strengths**:
    Identify and summarize the company's strongest green finance aspects.
    Example:
    - "Strong focus on renewable energy solutions."
    - "Excellent governance practices, with regular ESG reporting."

5. **Areas for Improvement**:
    Provide actionable suggestions for addressing gaps in green finance readiness and mitigating risks highlighted by the ML model.
    Example:
    - "Increase investment in local community infrastructure."
    - "Adopt more advanced waste management practices."

6. **Certification Recommendations**:
    Recommend certifications or frameworks the company should pursue, including timelines.
    Example:
    - "Recommended Certification: Global Reporting Initiative (GRI)."
    - "Suggested Timeline: Achieve certification within the next 12 months."

7. **Benefits of Green Finance Alignment**:
    Explain how aligning with green finance standards will benefit the company economically and ecologically.
    Example:
    - "Enhanced access to green funding opportunities."
    - "Improved brand reputation through sustainability initiatives."

8. **Next Steps**:
    Provide a clear roadmap for the company to improve its green finance profile and address risks.
    Example:
    - "Conduct a detailed carbon footprint analysis within the next quarter."
    - "Develop a Sustainability Action Plan addressing identified gaps."

Use this template to create a detailed report for the user based on the input data and the recommended green finance actions.
`

// SectionTitles lists the report sections in the order the prompt asks for.
var SectionTitles = []string{
	"Company Overview",
	"ML Risk Probability",
	"Sustainability Impact Areas",
	"Key Strengths",
	"Areas for Improvement",
	"Certification Recommendations",
	"Benefits of Green Finance Alignment",
	"Next Steps",
}

// InputBlock renders the data the advisor works from: the classifier output,
// the company record and the raw impact inputs.
func InputBlock(estimate models.RiskEstimate, company models.CompanyContext, profile models.ImpactProfile) string {
	var b strings.Builder
	b.WriteString("Green Finance Report:\n\n")
	fmt.Fprintf(&b, "**ML Model Risk Probability Prediction:** %s\n", estimate.Distribution())
	fmt.Fprintf(&b, "High-Risk Probability: %s (%s Risk)\n\n", estimate.PrimaryString(), estimate.Level())

	fmt.Fprintf(&b, "Company Name: %s\n", company.CompanyName)
	fmt.Fprintf(&b, "Place: %s\n", company.Country)
	fmt.Fprintf(&b, "Industry Category: %s\n", company.IndustryCategory)
	fmt.Fprintf(&b, "Sector: %s\n", company.Sector)
	fmt.Fprintf(&b, "Industry: %s\n", company.Industry)
	fmt.Fprintf(&b, "Products and Services: %s\n", company.ProductsAndServices)
	fmt.Fprintf(&b, "Description: %s\n", companies.CleanText(company.Description))

	fmt.Fprintf(&b, "Impact Area Community Value: %s\n", formatScore(profile.Community))
	fmt.Fprintf(&b, "Impact Area Environment Value: %s\n", formatScore(profile.Environment))
	fmt.Fprintf(&b, "Impact Area Customers Value: %s\n", formatScore(profile.Customers))
	fmt.Fprintf(&b, "Impact Area Governance Value: %s\n", formatScore(profile.Governance))
	fmt.Fprintf(&b, "Certification Cycle: %d\n", profile.CertificationCycle)
	return b.String()
}

// BuildPrompt is pure: identical inputs give byte-identical prompts.
func BuildPrompt(estimate models.RiskEstimate, company models.CompanyContext, profile models.ImpactProfile) string {
	return promptHeader + InputBlock(estimate, company, profile) + promptSections
}

// formatScore keeps one decimal for whole numbers so 25 renders as 25.0, the
// way the input form shows it.
func formatScore(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
