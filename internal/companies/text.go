package companies

import (
	"fmt"
	"strings"

	"green-finance-risk/internal/models"
)

var cleanReplacer = strings.NewReplacer("\n", " ", "\r", " ", "x000D", "", "_", "")

// CleanText strips line breaks, spreadsheet carriage-return escapes (x000D)
// and underscores, then collapses whitespace runs.
func CleanText(s string) string {
	return strings.Join(strings.Fields(cleanReplacer.Replace(s)), " ")
}

// Summary renders the company detail card shown next to a prediction.
func Summary(company models.CompanyContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", company.CompanyName)
	fmt.Fprintf(&b, "- **Place:** %s\n", company.Country)
	fmt.Fprintf(&b, "- **Industry Category:** %s\n", company.IndustryCategory)
	fmt.Fprintf(&b, "- **Sector:** %s\n", company.Sector)
	fmt.Fprintf(&b, "- **Industry:** %s\n\n", company.Industry)
	fmt.Fprintf(&b, "### Products and Services\n\n%s\n\n", company.ProductsAndServices)
	fmt.Fprintf(&b, "### Description\n\n%s\n", CleanText(company.Description))
	return b.String()
}
