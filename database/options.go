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
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables read when the corresponding option is unset.
// Caller-supplied option values always take precedence.
const (
	EnvDatabaseType        = "DATABASE_TYPE"
	EnvDatabaseURL         = "DATABASE_URL"
	EnvDatabaseSynchronize = "DATABASE_SYNCHRONIZE"
)

// Recognized database types.
const (
	TypeMySQL         = "mysql"
	TypePostgres      = "postgres"
	TypeSQLite        = "sqlite"
	TypeBetterSQLite3 = "better-sqlite3"
)

// Subscriber receives entity lifecycle events raised by the repository layer
// around insert, update, and load operations. Handlers run synchronously and
// must complete before the underlying operation proceeds; an error from a
// before-handler fails the whole operation with no write issued.
type Subscriber interface {
	BeforeInsert(ctx context.Context, model interface{}) error
	BeforeUpdate(ctx context.Context, model interface{}) error
	AfterLoad(ctx context.Context, model interface{}) error
}

// Options configures a DataSource. Type, URL, and Synchronize fall back to
// the DATABASE_* environment variables when unset; when Type is still empty,
// it is inferred from the URL scheme.
type Options struct {
	Type        string        `yaml:"type"`
	URL         string        `yaml:"url"`
	Synchronize bool          `yaml:"synchronize"`
	LogLevel    string        `yaml:"log_level"`
	Driver      string        `yaml:"driver"` // sql driver name override
	Entities    []interface{} `yaml:"-"`
	Subscribers []Subscriber  `yaml:"-"`

	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`
	SlowQueryTime   time.Duration `yaml:"slow_query_time"`
}

// DefaultOptions returns options with the default pool tuning.
func DefaultOptions() *Options {
	return &Options{
		MaxIdleConns:    10,
		MaxOpenConns:    100,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: time.Minute * 30,
		ConnectTimeout:  time.Second * 10,
		SlowQueryTime:   time.Second * 2,
	}
}

// LoadOptions reads an Options YAML file on top of the defaults.
func LoadOptions(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read options file: %w", err)
	}
	opts := DefaultOptions()
	if err := yaml.Unmarshal(data, opts); err != nil {
		return nil, fmt.Errorf("failed to parse options file: %w", err)
	}
	return opts, nil
}

func (o *Options) normalize() {
	o.applyEnv()
	if o.Type == "" {
		o.inferType()
	}
	defaults := DefaultOptions()
	if o.MaxIdleConns <= 0 {
		o.MaxIdleConns = defaults.MaxIdleConns
	}
	if o.MaxOpenConns <= 0 {
		o.MaxOpenConns = defaults.MaxOpenConns
	}
	if o.ConnMaxLifetime <= 0 {
		o.ConnMaxLifetime = defaults.ConnMaxLifetime
	}
	if o.ConnMaxIdleTime <= 0 {
		o.ConnMaxIdleTime = defaults.ConnMaxIdleTime
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = defaults.ConnectTimeout
	}
}

func (o *Options) applyEnv() {
	if o.Type == "" {
		o.Type = os.Getenv(EnvDatabaseType)
	}
	if o.URL == "" {
		o.URL = os.Getenv(EnvDatabaseURL)
	}
	if !o.Synchronize && strings.EqualFold(os.Getenv(EnvDatabaseSynchronize), "true") {
		o.Synchronize = true
	}
}

// inferType sniffs the URL scheme. File-based schemes are stripped down to
// the bare path; an unrecognized scheme leaves Type empty, which Connect
// rejects as a configuration error.
func (o *Options) inferType() {
	switch {
	case strings.HasPrefix(o.URL, "postgresql://"), strings.HasPrefix(o.URL, "postgres://"):
		o.Type = TypePostgres
	case strings.HasPrefix(o.URL, "mysql://"):
		o.Type = TypeMySQL
	case strings.HasPrefix(o.URL, "better-sqlite3:"):
		o.Type = TypeBetterSQLite3
		o.URL = strings.TrimPrefix(o.URL, "better-sqlite3:")
	case strings.HasPrefix(o.URL, "sqlite:"):
		o.Type = TypeSQLite
		o.URL = strings.TrimPrefix(o.URL, "sqlite:")
	case strings.HasPrefix(o.URL, "file:"):
		o.Type = TypeSQLite
		o.URL = strings.TrimPrefix(o.URL, "file:")
	}
}
