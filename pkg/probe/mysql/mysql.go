// Package mysql checks a MySQL or MariaDB server with SELECT 1.
package mysql

import (
	"database/sql"
	"errors"

	"plus-monitoring/general-healthcheck/pkg/probe"
	"plus-monitoring/general-healthcheck/pkg/probe/sqlprobe"

	driver "github.com/go-sql-driver/mysql"
)

// New creates a MySQL probe.
func New(t probe.Target) (probe.Probe, error) {
	if t.Username == "" {
		return nil, errors.New("username is required")
	}

	cfg := Config(t)
	return sqlprobe.New(t, func() (*sql.DB, error) {
		connector, err := driver.NewConnector(cfg)
		if err != nil {
			return nil, err
		}
		return sql.OpenDB(connector), nil
	}), nil
}

// Config builds the driver configuration for t.
func Config(t probe.Target) *driver.Config {
	cfg := driver.NewConfig()
	cfg.User = t.Username
	cfg.Passwd = t.Password
	cfg.Net = "tcp"
	cfg.Addr = t.Address()
	cfg.DBName = t.Database
	cfg.Timeout = t.Timeout
	cfg.ReadTimeout = t.Timeout
	cfg.WriteTimeout = t.Timeout
	cfg.ConnectionAttributes = "program_name:general-healthcheck"
	return cfg
}
