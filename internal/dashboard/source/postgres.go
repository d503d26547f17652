package source

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/soule-smart/dashboard/internal/dashboard"
)

// Schema creates the tables read by Postgres.
const Schema = `
CREATE TABLE IF NOT EXISTS revenue_monthly (
	period     TEXT PRIMARY KEY,
	mrr        NUMERIC(14,2) NOT NULL CHECK (mrr >= 0),
	new_mrr    NUMERIC(14,2) NOT NULL CHECK (new_mrr >= 0),
	churn_mrr  NUMERIC(14,2) NOT NULL CHECK (churn_mrr <= 0)
);
CREATE TABLE IF NOT EXISTS channel_funnel (
	channel   TEXT PRIMARY KEY,
	position  INT NOT NULL DEFAULT 0,
	leads     INT NOT NULL CHECK (leads >= 0),
	signups   INT NOT NULL CHECK (signups >= 0),
	revenue   NUMERIC(14,2) NOT NULL CHECK (revenue >= 0)
);
CREATE TABLE IF NOT EXISTS customer_segments (
	name      TEXT PRIMARY KEY,
	position  INT NOT NULL DEFAULT 0,
	share     NUMERIC(6,2) NOT NULL CHECK (share >= 0)
);
CREATE TABLE IF NOT EXISTS kpi_events (
	id         TEXT PRIMARY KEY,
	position   INT NOT NULL DEFAULT 0,
	event_date DATE NOT NULL,
	event      TEXT NOT NULL,
	kpi        TEXT NOT NULL,
	impact     TEXT NOT NULL CHECK (impact IN ('positive','negative','neutral'))
);`

// Querier is the subset of pgxpool.Pool used by Postgres.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Postgres reads the dashboard dataset from reporting tables.
type Postgres struct {
	db Querier
}

// NewPostgres constructs a Postgres source.
func NewPostgres(db Querier) *Postgres {
	return &Postgres{db: db}
}

// Name identifies the source in cache keys.
func (p *Postgres) Name() string { return "postgres" }

// Migrate creates the reporting tables when missing.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("source: migrate: %w", err)
	}
	return nil
}

// Revenue returns the monthly series in chronological order.
func (p *Postgres) Revenue(ctx context.Context) ([]dashboard.RevenuePoint, error) {
	rows, err := p.db.Query(ctx, `SELECT period, mrr::float8, new_mrr::float8, churn_mrr::float8 FROM revenue_monthly ORDER BY period`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := make([]dashboard.RevenuePoint, 0)
	for rows.Next() {
		var (
			period               string
			mrr, newMRR, churned float64
		)
		if err := rows.Scan(&period, &mrr, &newMRR, &churned); err != nil {
			return nil, err
		}
		point, err := dashboard.NewRevenuePoint(period, mrr, newMRR, churned)
		if err != nil {
			return nil, err
		}
		points = append(points, point)
	}
	return points, rows.Err()
}

// Channels returns the acquisition funnel per channel.
func (p *Postgres) Channels(ctx context.Context) ([]dashboard.ChannelPoint, error) {
	rows, err := p.db.Query(ctx, `SELECT channel, leads, signups, revenue::float8 FROM channel_funnel ORDER BY position, channel`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	channels := make([]dashboard.ChannelPoint, 0)
	for rows.Next() {
		var (
			name           string
			leads, signups int32
			revenue        float64
		)
		if err := rows.Scan(&name, &leads, &signups, &revenue); err != nil {
			return nil, err
		}
		channel, err := dashboard.NewChannelPoint(name, int(leads), int(signups), revenue)
		if err != nil {
			return nil, err
		}
		channels = append(channels, channel)
	}
	return channels, rows.Err()
}

// Segments returns the cohort shares.
func (p *Postgres) Segments(ctx context.Context) ([]dashboard.SegmentPoint, error) {
	rows, err := p.db.Query(ctx, `SELECT name, share::float8 FROM customer_segments ORDER BY position, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	segments := make([]dashboard.SegmentPoint, 0)
	for rows.Next() {
		var (
			name  string
			share float64
		)
		if err := rows.Scan(&name, &share); err != nil {
			return nil, err
		}
		segment, err := dashboard.NewSegmentPoint(name, share)
		if err != nil {
			return nil, err
		}
		segments = append(segments, segment)
	}
	return segments, rows.Err()
}

// Events returns the event log in its stored display order.
func (p *Postgres) Events(ctx context.Context) ([]dashboard.EventRow, error) {
	rows, err := p.db.Query(ctx, `SELECT id, event_date, event, kpi, impact FROM kpi_events ORDER BY position, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]dashboard.EventRow, 0)
	for rows.Next() {
		var (
			id, event, kpi, impact string
			day                    time.Time
		)
		if err := rows.Scan(&id, &day, &event, &kpi, &impact); err != nil {
			return nil, err
		}
		row, err := dashboard.NewEventRow(id, day.Format("2006-01-02"), event, kpi, impact)
		if err != nil {
			return nil, err
		}
		events = append(events, row)
	}
	return events, rows.Err()
}

// Seed replaces the reporting tables with data. It runs inside the caller's
// transaction; see db.WithTx.
func Seed(ctx context.Context, tx pgx.Tx, data dashboard.Dataset) error {
	if _, err := tx.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("source: seed schema: %w", err)
	}
	if _, err := tx.Exec(ctx, `TRUNCATE revenue_monthly, channel_funnel, customer_segments, kpi_events`); err != nil {
		return fmt.Errorf("source: seed truncate: %w", err)
	}

	batch := &pgx.Batch{}
	for _, p := range data.Revenue {
		batch.Queue(`INSERT INTO revenue_monthly (period, mrr, new_mrr, churn_mrr) VALUES ($1, $2, $3, $4)`, p.Period, p.MRR, p.NewMRR, p.ChurnMRR)
	}
	for i, c := range data.Channels {
		batch.Queue(`INSERT INTO channel_funnel (channel, position, leads, signups, revenue) VALUES ($1, $2, $3, $4, $5)`, c.Channel, i, c.Leads, c.Signups, c.Revenue)
	}
	for i, s := range data.Segments {
		batch.Queue(`INSERT INTO customer_segments (name, position, share) VALUES ($1, $2, $3)`, s.Name, i, s.Value)
	}
	for i, e := range data.Events {
		batch.Queue(`INSERT INTO kpi_events (id, position, event_date, event, kpi, impact) VALUES ($1, $2, $3, $4, $5, $6)`, e.ID, i, e.Date, e.Event, e.KPI, string(e.Impact))
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("source: seed insert: %w", err)
	}
	return nil
}
