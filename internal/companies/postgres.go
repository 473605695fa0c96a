package companies

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"green-finance-risk/internal/common/database"
	apperrors "green-finance-risk/internal/common/errors"
	"green-finance-risk/internal/models"
)

// PostgresCatalog reads companies from a table with the dataset's columns.
type PostgresCatalog struct {
	db          *database.PostgresClient
	namesQuery  string
	lookupQuery string
}

func NewPostgresCatalog(db *database.PostgresClient, table string) *PostgresCatalog {
	quoted := pq.QuoteIdentifier(table)
	return &PostgresCatalog{
		db: db,
		namesQuery: fmt.Sprintf(
			`SELECT company_name FROM %s GROUP BY company_name ORDER BY MIN(ctid)`, quoted),
		lookupQuery: fmt.Sprintf(
			`SELECT %s FROM %s WHERE company_name = $1 ORDER BY ctid LIMIT 1`,
			strings.Join(Columns, ", "), quoted),
	}
}

func (c *PostgresCatalog) Names(ctx context.Context) ([]string, error) {
	rows, err := c.db.Query(ctx, c.namesQuery)
	if err != nil {
		return nil, apperrors.NewCatalogUnavailableError(err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, apperrors.NewCatalogUnavailableError(err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewCatalogUnavailableError(err)
	}
	return names, nil
}

func (c *PostgresCatalog) Lookup(ctx context.Context, name string) (models.CompanyContext, error) {
	var (
		company models.CompanyContext
		fields  [6]sql.NullString
	)
	err := c.db.QueryRow(ctx, c.lookupQuery, strings.TrimSpace(name)).Scan(
		&company.CompanyName,
		&fields[0], &fields[1], &fields[2], &fields[3], &fields[4], &fields[5],
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.CompanyContext{}, apperrors.NewCompanyNotFoundError(name)
		}
		return models.CompanyContext{}, apperrors.NewCatalogUnavailableError(err)
	}

	company.Country = fields[0].String
	company.IndustryCategory = fields[1].String
	company.Sector = fields[2].String
	company.Industry = fields[3].String
	company.ProductsAndServices = fields[4].String
	company.Description = fields[5].String
	return company, nil
}
