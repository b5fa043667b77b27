/*
 * Copyright 2026 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
)

// DataSource is a provisioned but not yet connected database handle. Provision
// builds it from Options; Connect is the explicit initialization step that
// opens the underlying connection.
type DataSource struct {
	opts        *Options
	subscribers []Subscriber
	logger      Logger

	mu        sync.RWMutex
	db        *bun.DB
	sqlDB     *sql.DB
	connected bool
	lastError error
}

// HealthStatus holds the result of a health check against the database.
type HealthStatus struct {
	Healthy       bool          `json:"healthy"`
	Connected     bool          `json:"connected"`
	ResponseTime  time.Duration `json:"response_time"`
	ActiveConns   int           `json:"active_conns"`
	IdleConns     int           `json:"idle_conns"`
	MaxOpenConns  int           `json:"max_open_conns"`
	LastError     string        `json:"last_error,omitempty"`
	LastCheckTime time.Time     `json:"last_check_time"`
}

// DBStats mirrors database/sql pool statistics.
type DBStats struct {
	MaxOpenConns      int           `json:"max_open_conns"`
	OpenConns         int           `json:"open_conns"`
	InUse             int           `json:"in_use"`
	Idle              int           `json:"idle"`
	WaitCount         int64         `json:"wait_count"`
	WaitDuration      time.Duration `json:"wait_duration"`
	MaxIdleClosed     int64         `json:"max_idle_closed"`
	MaxLifetimeClosed int64         `json:"max_lifetime_closed"`
}

// Options returns the normalized options this data source was built from.
func (ds *DataSource) Options() *Options {
	return ds.opts
}

// Subscribers returns a copy of the effective subscriber list.
func (ds *DataSource) Subscribers() []Subscriber {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	out := make([]Subscriber, len(ds.subscribers))
	copy(out, ds.subscribers)
	return out
}

// AddSubscriber appends a subscriber after the existing ones.
func (ds *DataSource) AddSubscriber(s Subscriber) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.subscribers = append(ds.subscribers, s)
}

// Connect opens the database connection, configures the pool, pings with the
// configured timeout, registers entities, and when Synchronize is enabled
// creates the entity tables. It is a no-op when already connected.
func (ds *DataSource) Connect(ctx context.Context) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if ds.connected && ds.db != nil {
		return nil
	}

	sqlDB, db, err := ds.open()
	if err != nil {
		ds.lastError = err
		return err
	}

	sqlDB.SetMaxIdleConns(ds.opts.MaxIdleConns)
	sqlDB.SetMaxOpenConns(ds.opts.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(ds.opts.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(ds.opts.ConnMaxIdleTime)

	ctxTimeout, cancel := context.WithTimeout(ctx, ds.opts.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(ctxTimeout); err != nil {
		_ = db.Close()
		ds.lastError = err
		return fmt.Errorf("database connection test failed: %w", err)
	}

	entities := ds.entities()
	if len(entities) > 0 {
		db.RegisterModel(entities...)
	}
	if ds.opts.Synchronize {
		if err := createTables(ctx, db, entities); err != nil {
			_ = db.Close()
			ds.lastError = err
			return err
		}
	}

	ds.db = db
	ds.sqlDB = sqlDB
	ds.connected = true
	ds.lastError = nil

	if ds.logger != nil {
		ds.logger.Info("Database connected successfully:", "type", ds.opts.Type)
	}
	return nil
}

// open builds the sql.DB and bun.DB for the resolved database type. An empty
// or unrecognized type is a fatal configuration error surfaced here.
func (ds *DataSource) open() (*sql.DB, *bun.DB, error) {
	var sqlDB *sql.DB
	var db *bun.DB
	var err error

	switch ds.opts.Type {
	case TypeMySQL:
		sqlDB, err = sql.Open(ds.driverName("mysql"), mysqlDSN(ds.opts.URL))
		if err == nil {
			db = bun.NewDB(sqlDB, mysqldialect.New())
		}
	case TypePostgres, "postgresql":
		sqlDB, err = sql.Open(ds.driverName("postgres"), ds.opts.URL)
		if err == nil {
			db = bun.NewDB(sqlDB, pgdialect.New())
		}
	case TypeSQLite, "sqlite3", TypeBetterSQLite3:
		// better-sqlite3 is accepted for configuration compatibility and is
		// served by the same sqlite shim driver
		sqlDB, err = sql.Open(ds.driverName(sqliteshim.ShimName), ds.opts.URL)
		if err == nil {
			db = bun.NewDB(sqlDB, sqlitedialect.New())
		}
	case "":
		return nil, nil, fmt.Errorf("database type is not set and could not be inferred from url %q", ds.opts.URL)
	default:
		return nil, nil, fmt.Errorf("unsupported database type: %s", ds.opts.Type)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	switch strings.ToLower(ds.opts.LogLevel) {
	case "debug":
		db.AddQueryHook(bundebug.NewQueryHook(
			bundebug.WithVerbose(true),
			bundebug.FromEnv("BUNDEBUG"),
		))
	case "info":
		db.AddQueryHook(&queryLogHook{logger: ds.logger})
	}
	if ds.opts.SlowQueryTime > 0 {
		db.AddQueryHook(&slowQueryHook{slowTime: ds.opts.SlowQueryTime, logger: ds.logger})
	}
	return sqlDB, db, nil
}

func (ds *DataSource) driverName(fallback string) string {
	if ds.opts.Driver != "" {
		return ds.opts.Driver
	}
	return fallback
}

// entities merges the option-supplied entity list with the global registry.
func (ds *DataSource) entities() []interface{} {
	out := make([]interface{}, 0, len(ds.opts.Entities))
	out = append(out, ds.opts.Entities...)
	out = append(out, RegisteredEntityInstances()...)
	return out
}

func createTables(ctx context.Context, db *bun.DB, entities []interface{}) error {
	for _, entity := range entities {
		if _, err := db.NewCreateTable().Model(entity).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table for %T: %w", entity, err)
		}
	}
	return nil
}

// mysqlDSN converts a mysql:// URL into the driver's native DSN form. Native
// DSNs pass through untouched.
func mysqlDSN(raw string) string {
	if !strings.HasPrefix(raw, "mysql://") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	password, _ := u.User.Password()
	query := u.RawQuery
	if query == "" {
		query = "charset=utf8mb4&parseTime=True&loc=Local"
	}
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?%s",
		u.User.Username(), password, u.Host, strings.TrimPrefix(u.Path, "/"), query)
}

// DB returns the Bun database instance, or nil before Connect.
func (ds *DataSource) DB() *bun.DB {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.db
}

// SQLDB returns the raw sql.DB, or nil before Connect.
func (ds *DataSource) SQLDB() *sql.DB {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.sqlDB
}

// Ping verifies the connection is alive.
func (ds *DataSource) Ping(ctx context.Context) error {
	db := ds.DB()
	if db == nil {
		return fmt.Errorf("database not connected")
	}
	return db.PingContext(ctx)
}

// Close closes the database connection.
func (ds *DataSource) Close() error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if ds.db == nil {
		return nil
	}
	err := ds.db.Close()
	ds.db = nil
	ds.sqlDB = nil
	ds.connected = false
	if ds.logger != nil {
		if err != nil {
			ds.logger.Error("Failed to close database connection", "error", err)
		} else {
			ds.logger.Info("Database connection closed")
		}
	}
	return err
}

// HealthCheck pings the database and reports connectivity and pool state.
func (ds *DataSource) HealthCheck(ctx context.Context) *HealthStatus {
	start := time.Now()
	status := &HealthStatus{LastCheckTime: start}

	db := ds.DB()
	if db == nil {
		status.LastError = "database not connected"
		return status
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()
	err := db.PingContext(ctxTimeout)
	status.ResponseTime = time.Since(start)

	ds.mu.Lock()
	if err != nil {
		status.LastError = err.Error()
		ds.lastError = err
	} else {
		status.Healthy = true
		status.Connected = true
		ds.lastError = nil
	}
	sqlDB := ds.sqlDB
	ds.mu.Unlock()

	if sqlDB != nil {
		stats := sqlDB.Stats()
		status.ActiveConns = stats.InUse
		status.IdleConns = stats.Idle
		status.MaxOpenConns = stats.MaxOpenConnections
	}
	return status
}

// Stats returns database/sql pool statistics.
func (ds *DataSource) Stats() *DBStats {
	sqlDB := ds.SQLDB()
	if sqlDB == nil {
		return &DBStats{}
	}
	stats := sqlDB.Stats()
	return &DBStats{
		MaxOpenConns:      stats.MaxOpenConnections,
		OpenConns:         stats.OpenConnections,
		InUse:             stats.InUse,
		Idle:              stats.Idle,
		WaitCount:         stats.WaitCount,
		WaitDuration:      stats.WaitDuration,
		MaxIdleClosed:     stats.MaxIdleClosed,
		MaxLifetimeClosed: stats.MaxLifetimeClosed,
	}
}

// SetLogger replaces the data source logger.
func (ds *DataSource) SetLogger(logger Logger) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.logger = logger
}
