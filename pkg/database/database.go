// Package database opens traced PostgreSQL connections.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/nhatthm/otelsql"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

// Config locates the PostgreSQL server and sizes the pool. Zero pool values
// keep the database/sql defaults.
type Config struct {
	User            string
	Password        string
	Host            string
	Name            string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	DisableTLS      bool
}

// dsn renders cfg as a lib/pq connection URL. Sessions run in UTC so stored
// timestamps round-trip unchanged.
func (cfg Config) dsn() string {
	q := url.Values{}
	q.Set("sslmode", "require")
	if cfg.DisableTLS {
		q.Set("sslmode", "disable")
	}
	q.Set("timezone", "utc")
	q.Set("application_name", "haojia")

	return (&url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     cfg.Host,
		Path:     cfg.Name,
		RawQuery: q.Encode(),
	}).String()
}

// Open returns a pool whose queries are traced and whose stats are recorded
// through otelsql. It does not contact the server; see StatusCheck.
func Open(cfg Config) (*sqlx.DB, error) {
	driverName, err := otelsql.Register("postgres",
		otelsql.AllowRoot(),
		otelsql.TraceQueryWithoutArgs(),
		otelsql.TraceRowsClose(),
		otelsql.TraceRowsAffected(),
		otelsql.WithDatabaseName(cfg.Name),
		otelsql.WithSystem(semconv.DBSystemPostgreSQL),
	)
	if err != nil {
		return nil, fmt.Errorf("register traced driver: %w", err)
	}

	db, err := sql.Open(driverName, cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := otelsql.RecordStats(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("record db stats: %w", err)
	}

	return sqlx.NewDb(db, "postgres"), nil
}

// StatusCheck pings db until it answers, backing off from 100ms up to 1s
// between attempts, then forces a round trip with a trivial query. ctx is the
// only bound on the wait: /health allows a second, startup migration a minute.
func StatusCheck(ctx context.Context, db *sqlx.DB) error {
	for attempt := 1; ; attempt++ {
		err := db.PingContext(ctx)
		if err == nil {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("database not ready: %w", errors.Join(ctx.Err(), err))
		case <-time.After(min(time.Duration(attempt)*100*time.Millisecond, time.Second)):
		}
	}

	var ok bool
	if err := db.QueryRowxContext(ctx, `SELECT true`).Scan(&ok); err != nil {
		return fmt.Errorf("database round trip: %w", err)
	}
	return nil
}
