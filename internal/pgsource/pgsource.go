// Package pgsource reads event templates from a Postgres table.
package pgsource

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/mo"

	"evcal/internal/catalog"
	appLog "evcal/internal/log"
)

// Schema creates the template table. Times are stored as the raw text
// authors entered; parsing happens at ingestion like for every source.
const Schema = `CREATE TABLE IF NOT EXISTS event_templates (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL DEFAULT '',
	route       TEXT NOT NULL DEFAULT '',
	template    TEXT NOT NULL DEFAULT 'event',
	start_raw   TEXT NOT NULL,
	end_raw     TEXT NOT NULL,
	repeat_mask TEXT,
	freq        TEXT,
	until_raw   TEXT,
	location    TEXT
)`

const selectTemplates = `SELECT id, title, route, template, start_raw, end_raw,
	repeat_mask, freq, until_raw, location
FROM event_templates
ORDER BY id`

// Querier is the subset of *pgxpool.Pool the source needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Execer is the subset of *pgxpool.Pool EnsureSchema needs.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// EnsureSchema creates the event_templates table if it is missing.
func EnsureSchema(ctx context.Context, db Execer) error {
	if _, err := db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create event_templates: %w", err)
	}
	return nil
}

// Source lists templates from the event_templates table.
type Source struct {
	db Querier
}

var _ catalog.Source = (*Source)(nil)

func New(db Querier) *Source {
	return &Source{db: db}
}

// NewPool opens and pings a connection pool for databaseURL.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}
	poolCfg.MaxConns = 4
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// Templates returns every row as a template. A row that fails to scan is
// logged and skipped.
func (s *Source) Templates(ctx context.Context) ([]catalog.Template, error) {
	rows, err := s.db.Query(ctx, selectTemplates)
	if err != nil {
		return nil, fmt.Errorf("list event templates: %w", err)
	}
	defer rows.Close()

	var out []catalog.Template
	for rows.Next() {
		var (
			rec                           catalog.Record
			repeat, freq, until, location *string
		)
		if err := rows.Scan(&rec.TemplateID, &rec.TemplateTitle, &rec.TemplateRoute, &rec.TemplateType,
			&rec.Start, &rec.End, &repeat, &freq, &until, &location); err != nil {
			appLog.Error("pgsource: skipping row", err)
			continue
		}
		rec.Repeat = nullable(repeat)
		rec.Freq = nullable(freq)
		rec.Until = nullable(until)
		rec.Location = nullable(location)
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return out, fmt.Errorf("list event templates: %w", err)
	}

	appLog.Debug("pgsource: templates loaded", "template_count", len(out))
	return out, nil
}

func nullable(v *string) mo.Option[string] {
	if v == nil {
		return mo.None[string]()
	}
	return mo.Some(*v)
}
