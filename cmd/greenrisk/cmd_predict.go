package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"green-finance-risk/internal/companies"
	"green-finance-risk/internal/models"
)

var predictFlags struct {
	company     string
	community   float64
	environment float64
	customers   float64
	governance  float64
	cycle       int
	jsonOutput  bool
}

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict the risk probability for a company and generate its report",
	RunE:  runPredict,
}

func init() {
	defaults := models.DefaultImpactProfile()
	f := predictCmd.Flags()
	f.StringVar(&predictFlags.company, "company", "", "Company name from the dataset (required)")
	f.Float64Var(&predictFlags.community, "community", defaults.Community, "Impact Area Community score (0-100)")
	f.Float64Var(&predictFlags.environment, "environment", defaults.Environment, "Impact Area Environment score (0-100)")
	f.Float64Var(&predictFlags.customers, "customers", defaults.Customers, "Impact Area Customers score (0-100)")
	f.Float64Var(&predictFlags.governance, "governance", defaults.Governance, "Impact Area Governance score (0-100)")
	f.IntVar(&predictFlags.cycle, "certification-cycle", defaults.CertificationCycle, "Certification cycle (0-10)")
	f.BoolVar(&predictFlags.jsonOutput, "json", false, "Print the result as JSON")

	_ = predictCmd.MarkFlagRequired("company")
}

func profileFromFlags() (models.ImpactProfile, error) {
	profile := models.ImpactProfile{
		Community:          predictFlags.community,
		Environment:        predictFlags.environment,
		Customers:          predictFlags.customers,
		Governance:         predictFlags.governance,
		CertificationCycle: predictFlags.cycle,
	}
	return profile, profile.Validate()
}

func runPredict(cmd *cobra.Command, _ []string) error {
	profile, err := profileFromFlags()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	company, err := companies.Resolve(ctx, a.catalog, models.ReportRequest{CompanyName: predictFlags.company})
	if err != nil {
		return err
	}

	result, err := a.pipeline.Execute(ctx, profile, company)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if predictFlags.jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(models.ReportResponse{
			RequestID:       result.RequestID,
			CompanyName:     company.CompanyName,
			RiskProbability: result.Estimate.Primary,
			RiskLevel:       result.Estimate.Level(),
			Probabilities:   result.Estimate.Probabilities,
			Report:          result.Report,
		})
	}

	fmt.Fprintln(out, companies.Summary(company))
	fmt.Fprintf(out, "Risk Probability Prediction: %s\n\n", result.Estimate.String())
	fmt.Fprintln(out, "## Green Finance Report")
	fmt.Fprintln(out)
	fmt.Fprintln(out, result.Report)
	return nil
}
