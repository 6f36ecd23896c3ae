// Package postgresql checks a PostgreSQL server with SELECT 1.
package postgresql

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"plus-monitoring/general-healthcheck/pkg/probe"
	"plus-monitoring/general-healthcheck/pkg/probe/sqlprobe"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

// New creates a PostgreSQL probe.
func New(t probe.Target) (probe.Probe, error) {
	if t.Username == "" {
		return nil, errors.New("username is required")
	}

	connConfig, err := pgx.ParseConfig(ConnString(t))
	if err != nil {
		return nil, fmt.Errorf("invalid connection settings: %w", err)
	}

	return sqlprobe.New(t, func() (*sql.DB, error) {
		return stdlib.OpenDB(*connConfig), nil
	}), nil
}

// ConnString builds a postgres:// URL for t. The database defaults to the
// server's default for the user when empty.
func ConnString(t probe.Target) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(t.Username, t.Password),
		Host:   t.Address(),
		Path:   "/" + t.Database,
	}

	q := url.Values{}
	q.Set("application_name", "general-healthcheck")
	q.Set("sslmode", "prefer")
	if secs := int(t.Timeout.Seconds()); secs > 0 {
		q.Set("connect_timeout", strconv.Itoa(secs))
	}
	u.RawQuery = q.Encode()

	return u.String()
}
