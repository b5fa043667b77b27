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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/oriole/autofill"
)

type recordingSubscriber struct {
	events []string
}

func (s *recordingSubscriber) BeforeInsert(context.Context, interface{}) error {
	s.events = append(s.events, "insert")
	return nil
}

func (s *recordingSubscriber) BeforeUpdate(context.Context, interface{}) error {
	s.events = append(s.events, "update")
	return nil
}

func (s *recordingSubscriber) AfterLoad(context.Context, interface{}) error {
	s.events = append(s.events, "load")
	return nil
}

func TestProvisionPrependsListener(t *testing.T) {
	custom := &recordingSubscriber{}
	ds, err := Provision(&Options{URL: "sqlite:./app.db", Subscribers: []Subscriber{custom}})
	require.NoError(t, err)

	subs := ds.Subscribers()
	require.Len(t, subs, 2)
	_, ok := subs[0].(*autofill.Listener)
	assert.True(t, ok, "audit listener must come first")
	assert.Same(t, custom, subs[1])
}

func TestProvisionNormalizesOptions(t *testing.T) {
	ds, err := Provision(&Options{URL: "sqlite:./app.db"})
	require.NoError(t, err)
	assert.Equal(t, TypeSQLite, ds.Options().Type)
	assert.Equal(t, "./app.db", ds.Options().URL)
}

func TestProvisionDoesNotConnect(t *testing.T) {
	ds, err := Provision(&Options{URL: "sqlite::memory:"})
	require.NoError(t, err)
	assert.Nil(t, ds.DB())
	assert.Error(t, ds.Ping(context.Background()))
}

func TestProvisionNilOptions(t *testing.T) {
	ds, err := Provision(nil)
	require.NoError(t, err)
	require.NotNil(t, ds.Options())
	subs := ds.Subscribers()
	require.Len(t, subs, 1)
	_, ok := subs[0].(*autofill.Listener)
	assert.True(t, ok)
}

func TestProvisionDataSourceIsIdempotent(t *testing.T) {
	ds, err := Provision(&Options{URL: "sqlite::memory:"})
	require.NoError(t, err)
	before := len(ds.Subscribers())
	ProvisionDataSource(ds)
	assert.Len(t, ds.Subscribers(), before)
}

func TestAddSubscriberAppends(t *testing.T) {
	ds, err := Provision(&Options{URL: "sqlite::memory:"})
	require.NoError(t, err)
	custom := &recordingSubscriber{}
	ds.AddSubscriber(custom)

	subs := ds.Subscribers()
	assert.Same(t, custom, subs[len(subs)-1])
}

func TestConnectRejectsUnknownType(t *testing.T) {
	ds, err := Provision(&Options{URL: "oracle://localhost/app"})
	require.NoError(t, err)
	err = ds.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database type is not set")

	ds, err = Provision(&Options{Type: "mssql", URL: "server=localhost"})
	require.NoError(t, err)
	err = ds.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database type")
}
