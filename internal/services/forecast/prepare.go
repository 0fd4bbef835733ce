// Package forecast fits independent per-platform price and sales models.
package forecast

import (
	"sort"
	"time"

	"ShopScore/internal/domain/models"
	"ShopScore/pkg/table"
	"ShopScore/pkg/util"
)

// Policy collapses observations that share a date.
type Policy int

const (
	// PolicyLast keeps the last value seen for a date (price).
	PolicyLast Policy = iota
	// PolicySum adds all values seen for a date (sales).
	PolicySum
)

// SyntheticPlatform names the single series of a table without a platform column.
const SyntheticPlatform = "Platform_1"

var (
	dateColumns     = []string{"date", "ds", "timestamp", "datetime", "created_at", "date_created"}
	priceColumns    = []string{"price", "current_price", "selling_price", "amount", "cost"}
	salesColumns    = []string{"sales", "quantity", "units_sold", "units", "qty", "count"}
	platformColumns = []string{"platform", "marketplace", "seller", "store"}
)

// ColumnKeys names the columns of a series table. An empty Platform means
// every row belongs to SyntheticPlatform.
type ColumnKeys struct {
	Date     string
	Value    string
	Platform string
}

// DetectColumns resolves the date, value and optional platform columns for metric.
func DetectColumns(t *table.Table, metric models.Metric) (ColumnKeys, error) {
	var keys ColumnKeys
	date, ok := t.Resolve(dateColumns...)
	if !ok {
		return keys, &models.SchemaError{Table: t.Name, Wanted: dateColumns, Columns: t.Columns}
	}
	valueAliases := priceColumns
	if metric == models.MetricSales {
		valueAliases = salesColumns
	}
	value, ok := t.Resolve(valueAliases...)
	if !ok {
		return keys, &models.SchemaError{Table: t.Name, Wanted: valueAliases, Columns: t.Columns}
	}
	keys.Date, keys.Value = date, value
	keys.Platform, _ = t.Resolve(platformColumns...)
	return keys, nil
}

// Prepare groups rows by platform, drops rows with an unreadable date or value,
// collapses duplicate dates under policy and sorts ascending. Platforms with
// fewer than two distinct dates are left out.
func Prepare(t *table.Table, keys ColumnKeys, policy Policy) map[string][]models.Observation {
	byPlatform := make(map[string]map[time.Time]float64)
	for i := 0; i < t.Len(); i++ {
		platform := SyntheticPlatform
		if keys.Platform != "" {
			platform = t.Value(i, keys.Platform)
			if platform == "" {
				continue
			}
		}
		day, ok := util.ParseDay(t.Value(i, keys.Date))
		if !ok {
			continue
		}
		v, ok := t.Float(i, keys.Value)
		if !ok {
			continue
		}
		days, ok := byPlatform[platform]
		if !ok {
			days = make(map[time.Time]float64)
			byPlatform[platform] = days
		}
		if policy == PolicySum {
			days[day] += v
		} else {
			days[day] = v
		}
	}

	out := make(map[string][]models.Observation, len(byPlatform))
	for platform, days := range byPlatform {
		if len(days) < 2 {
			continue
		}
		obs := make([]models.Observation, 0, len(days))
		for d, v := range days {
			obs = append(obs, models.Observation{Date: d, Value: v})
		}
		sort.Slice(obs, func(i, j int) bool { return obs[i].Date.Before(obs[j].Date) })
		out[platform] = obs
	}
	return out
}

// PlatformOrder lists the platforms of t in first-appearance order.
func PlatformOrder(t *table.Table, keys ColumnKeys) []string {
	if keys.Platform == "" {
		return []string{SyntheticPlatform}
	}
	return t.Distinct(keys.Platform)
}
