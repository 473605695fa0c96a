package companies

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	apperrors "green-finance-risk/internal/common/errors"
	"green-finance-risk/internal/models"
)

// CSVCatalog holds the whole dataset in memory. It is immutable after load.
type CSVCatalog struct {
	names   []string
	records map[string]models.CompanyContext
}

// LoadCSV reads the dataset at path. Failures are CATALOG_UNAVAILABLE.
func LoadCSV(path string) (*CSVCatalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewCatalogUnavailableError(err)
	}
	defer f.Close()

	catalog, err := ReadCSV(f)
	if err != nil {
		return nil, apperrors.NewCatalogUnavailableError(fmt.Errorf("%s: %w", path, err))
	}
	return catalog, nil
}

// ReadCSV parses a dataset with a header row. Columns are matched by name so
// extra columns and any column order are accepted. Company names keep their
// first-seen order; for repeated names the first row wins.
func ReadCSV(r io.Reader) (*CSVCatalog, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))] = i
	}
	for _, col := range Columns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	catalog := &CSVCatalog{records: make(map[string]models.CompanyContext)}
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		field := func(col string) string {
			if i := index[col]; i < len(row) {
				return row[i]
			}
			return ""
		}
		company := models.CompanyContext{
			CompanyName:         strings.TrimSpace(field(ColumnCompanyName)),
			Country:             field(ColumnCountry),
			IndustryCategory:    field(ColumnIndustryCategory),
			Sector:              field(ColumnSector),
			Industry:            field(ColumnIndustry),
			ProductsAndServices: field(ColumnProductsAndServices),
			Description:         field(ColumnDescription),
		}
		if company.CompanyName == "" {
			continue
		}
		if _, seen := catalog.records[company.CompanyName]; seen {
			continue
		}
		catalog.names = append(catalog.names, company.CompanyName)
		catalog.records[company.CompanyName] = company
	}
	return catalog, nil
}

func (c *CSVCatalog) Names(context.Context) ([]string, error) {
	return append([]string(nil), c.names...), nil
}

func (c *CSVCatalog) Lookup(_ context.Context, name string) (models.CompanyContext, error) {
	company, ok := c.records[strings.TrimSpace(name)]
	if !ok {
		return models.CompanyContext{}, apperrors.NewCompanyNotFoundError(name)
	}
	return company, nil
}

func (c *CSVCatalog) Len() int { return len(c.names) }
