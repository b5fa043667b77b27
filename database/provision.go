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
	"sync"

	"github.com/tomoncle/oriole/autofill"
	"github.com/uptrace/bun"
)

// Provision builds an unconnected DataSource from opts. Options are
// normalized (environment fallbacks, URL-scheme type inference) and the
// audit-column listener is prepended to the subscriber list; caller-supplied
// subscribers are preserved after it. No connection is opened here — call
// Connect on the result.
func Provision(opts *Options) (*DataSource, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	opts.normalize()

	subscribers := make([]Subscriber, 0, len(opts.Subscribers)+1)
	subscribers = append(subscribers, autofill.DefaultListener())
	subscribers = append(subscribers, opts.Subscribers...)

	return &DataSource{
		opts:        opts,
		subscribers: subscribers,
		logger:      GetLogger(),
	}, nil
}

// ProvisionDataSource merges the audit-column listener into a pre-built
// DataSource's subscriber list in place, keeping the caller's configuration.
func ProvisionDataSource(ds *DataSource) *DataSource {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	for _, s := range ds.subscribers {
		if _, ok := s.(*autofill.Listener); ok {
			return ds
		}
	}
	ds.subscribers = append([]Subscriber{autofill.DefaultListener()}, ds.subscribers...)
	return ds
}

var (
	globalMu sync.RWMutex
	global   *DataSource
)

// Init provisions and connects the global data source used by the top-level
// generic service.
func Init(ctx context.Context, opts *Options) (*DataSource, error) {
	ds, err := Provision(opts)
	if err != nil {
		return nil, err
	}
	if err := ds.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	globalMu.Lock()
	global = ds
	globalMu.Unlock()
	return ds, nil
}

// Default returns the global data source, or nil before Init.
func Default() *DataSource {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return global
}

// GetDB returns the global Bun database instance, or nil before Init.
func GetDB() *bun.DB {
	if ds := Default(); ds != nil {
		return ds.DB()
	}
	return nil
}

// Close closes the global data source.
func Close() error {
	if ds := Default(); ds != nil {
		return ds.Close()
	}
	return nil
}
