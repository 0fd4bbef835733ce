package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"ShopScore/internal/domain/models"
	"ShopScore/internal/domain/repository"
	pkgch "ShopScore/pkg/clickhouse"
	applogger "ShopScore/pkg/logger"
)

const defaultSeriesTable = "product_series"

// CHSeriesStore keeps observations in a ReplacingMergeTree keyed by
// (product, metric, platform, date); re-ingesting a date replaces its value.
type CHSeriesStore struct {
	db    *sql.DB
	ch    *pkgch.Client
	table string
	l     *applogger.Logger
}

// NewCHSeriesStore creates a series store over the client's pool.
func NewCHSeriesStore(ch *pkgch.Client, l *applogger.Logger) *CHSeriesStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHSeriesStore{db: ch.DB(), ch: ch, table: defaultSeriesTable, l: l}
}

var _ repository.SeriesStore = (*CHSeriesStore)(nil)

// Schema returns the DDL for the series table.
func (s *CHSeriesStore) Schema() []string {
	return []string{fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	product    LowCardinality(String),
	metric     LowCardinality(String),
	platform   LowCardinality(String),
	date       Date,
	value      Float64,
	ingested   DateTime64(3) DEFAULT now64(3)
) ENGINE = ReplacingMergeTree(ingested)
ORDER BY (product, metric, platform, date)`, s.table)}
}

func (s *CHSeriesStore) Init(ctx context.Context) error {
	return s.ch.InitSchema(ctx, s.Schema())
}

// SaveObservations inserts in chunks of multi-row VALUES.
func (s *CHSeriesStore) SaveObservations(ctx context.Context, obs []models.StoredObservation) error {
	const chunkSize = 2000
	for start := 0; start < len(obs); start += chunkSize {
		end := min(start+chunkSize, len(obs))
		q, args := buildInsert(s.table, obs[start:end])
		if len(args) == 0 {
			continue
		}
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert series: %w", err)
		}
	}
	return nil
}

func (s *CHSeriesStore) LoadObservations(ctx context.Context, q repository.SeriesQuery) ([]models.StoredObservation, error) {
	query, args := buildSelect(s.table, q)
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query series: %w", err)
	}
	defer rows.Close()

	var out []models.StoredObservation
	for rows.Next() {
		var o models.StoredObservation
		var metric string
		if err := rows.Scan(&o.Product, &metric, &o.Platform, &o.Date, &o.Value); err != nil {
			return nil, err
		}
		o.Metric = models.Metric(metric)
		o.Date = o.Date.UTC()
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	s.l.Debug("series loaded",
		applogger.String("product", q.Product),
		applogger.Int("rows", len(out)),
		applogger.Duration("took", time.Since(start)))
	return out, nil
}

func (s *CHSeriesStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the pool belongs to the client.
func (s *CHSeriesStore) Close() error {
	return nil
}

func buildInsert(table string, obs []models.StoredObservation) (string, []interface{}) {
	values := make([]string, 0, len(obs))
	args := make([]interface{}, 0, len(obs)*5)
	for _, o := range obs {
		if o.Product == "" || o.Date.IsZero() {
			continue
		}
		values = append(values, "(?, ?, ?, ?, ?)")
		args = append(args, o.Product, string(o.Metric), o.Platform, o.Date.UTC(), o.Value)
	}
	q := fmt.Sprintf("INSERT INTO %s (product, metric, platform, date, value) VALUES %s", table, strings.Join(values, ","))
	return q, args
}

func buildSelect(table string, q repository.SeriesQuery) (string, []interface{}) {
	where := []string{"product = ?", "metric = ?"}
	args := []interface{}{q.Product, string(q.Metric)}
	if q.Platform != "" {
		where = append(where, "platform = ?")
		args = append(args, q.Platform)
	}
	if !q.From.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, q.From.UTC())
	}
	if !q.To.IsZero() {
		where = append(where, "date <= ?")
		args = append(args, q.To.UTC())
	}
	query := fmt.Sprintf("SELECT product, metric, platform, date, value FROM %s FINAL WHERE %s ORDER BY platform, date",
		table, strings.Join(where, " AND "))
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}
	return query, args
}
