// Package companies serves the read-only company reference data: the list of
// selectable companies and the descriptive record of each one.
package companies

import (
	"context"

	apperrors "green-finance-risk/internal/common/errors"
	"green-finance-risk/internal/models"
)

// Column names of the company dataset, in file order.
const (
	ColumnCompanyName         = "company_name"
	ColumnCountry             = "country"
	ColumnIndustryCategory    = "industry_category"
	ColumnSector              = "sector"
	ColumnIndustry            = "industry"
	ColumnProductsAndServices = "products_and_services"
	ColumnDescription         = "description"
)

// Columns lists every column a company source must provide.
var Columns = []string{
	ColumnCompanyName,
	ColumnCountry,
	ColumnIndustryCategory,
	ColumnSector,
	ColumnIndustry,
	ColumnProductsAndServices,
	ColumnDescription,
}

// Catalog looks up company context records. Lookup returns COMPANY_NOT_FOUND
// for unknown names and CATALOG_UNAVAILABLE when the backend fails.
type Catalog interface {
	Names(ctx context.Context) ([]string, error)
	Lookup(ctx context.Context, name string) (models.CompanyContext, error)
}

// Resolve returns the inline company of req when present, otherwise the
// catalog record named by req.CompanyName.
func Resolve(ctx context.Context, catalog Catalog, req models.ReportRequest) (models.CompanyContext, error) {
	if req.Company != nil {
		return *req.Company, nil
	}
	if catalog == nil {
		return models.CompanyContext{}, apperrors.NewCompanyNotFoundError(req.CompanyName)
	}
	return catalog.Lookup(ctx, req.CompanyName)
}
