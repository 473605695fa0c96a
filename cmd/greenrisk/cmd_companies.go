package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"green-finance-risk/internal/common/logger"
	"green-finance-risk/internal/companies"
	"green-finance-risk/internal/models"
)

var companiesCmd = &cobra.Command{
	Use:   "companies [name]",
	Short: "List the company dataset, or show one company's details",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCompanies,
}

func runCompanies(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	a := &app{cfg: cfg, zapLog: zapLog, log: logger.NewZapAdapter(zapLog)}
	defer a.Close()

	catalog, err := a.buildCatalog(cmd.Context())
	if err != nil {
		return err
	}
	return printCompanies(cmd.Context(), cmd.OutOrStdout(), catalog, args)
}

func printCompanies(ctx context.Context, out io.Writer, catalog companies.Catalog, args []string) error {
	if len(args) == 1 {
		company, err := companies.Resolve(ctx, catalog, models.ReportRequest{CompanyName: args[0]})
		if err != nil {
			return err
		}
		fmt.Fprint(out, companies.Summary(company))
		return nil
	}

	names, err := catalog.Names(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(out, name)
	}
	return nil
}
