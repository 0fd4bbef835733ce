package forecast

import (
	"fmt"
	"strings"
	"time"

	"ShopScore/internal/domain/models"
	"ShopScore/pkg/table"
	"ShopScore/pkg/util"
)

var productColumns = []string{"product_name", "product", "name", "title"}

// ExpandMonthly turns a wide cross-platform table (one row per product and
// platform, with price_month_N and sales_month_N columns) into a long table
// with date, platform, price and sales columns. Month m of M is dated M-m
// months before now. Only rows of product are kept; blank cells are skipped.
func ExpandMonthly(t *table.Table, product string, now time.Time) (*table.Table, error) {
	productCol, ok := t.Resolve(productColumns...)
	if !ok {
		return nil, &models.SchemaError{Table: t.Name, Wanted: productColumns, Columns: t.Columns}
	}
	platformCol, ok := t.Resolve(platformColumns...)
	if !ok {
		return nil, &models.SchemaError{Table: t.Name, Wanted: platformColumns, Columns: t.Columns}
	}
	var priceCols, salesCols []string
	for m := 1; ; m++ {
		p, hasPrice := t.Resolve(fmt.Sprintf("price_month_%d", m))
		s, hasSales := t.Resolve(fmt.Sprintf("sales_month_%d", m))
		if !hasPrice && !hasSales {
			break
		}
		priceCols = append(priceCols, p)
		salesCols = append(salesCols, s)
	}
	months := len(priceCols)
	if months == 0 {
		return nil, &models.SchemaError{Table: t.Name, Wanted: []string{"price_month_1", "sales_month_1"}, Columns: t.Columns}
	}

	want := strings.ToLower(strings.TrimSpace(product))
	base := util.Day(now)
	rows := make([][]string, 0)
	for i := 0; i < t.Len(); i++ {
		if strings.ToLower(t.Value(i, productCol)) != want {
			continue
		}
		platform := t.Value(i, platformCol)
		for m := 1; m <= months; m++ {
			price := t.Value(i, priceCols[m-1])
			sales := t.Value(i, salesCols[m-1])
			if price == "" && sales == "" {
				continue
			}
			date := base.AddDate(0, -(months - m), 0)
			rows = append(rows, []string{date.Format("2006-01-02"), platform, price, sales})
		}
	}
	return table.FromRecords(t.Name+":"+product, []string{"date", "platform", "price", "sales"}, rows), nil
}
