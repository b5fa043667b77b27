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

package oriole

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/oriole/autofill"
	"github.com/tomoncle/oriole/database"
	"github.com/tomoncle/oriole/types"
	"github.com/uptrace/bun"
)

type note struct {
	bun.BaseModel `bun:"table:notes"`

	ID        string `bun:"id,pk"`
	Body      string `bun:"body"`
	CreatedAt string `bun:"created_at"`
	UpdatedAt string `bun:"updated_at"`
}

func newNoteService(t *testing.T) Service[note] {
	t.Helper()

	cfg := autofill.NewConfig()
	cfg.SetPrimary(autofill.PolicyPatch{Generator: autofill.UUID()})
	reg := autofill.NewRegistry()
	sch := reg.ModelWithConfig((*note)(nil), cfg)
	sch.Primary("ID")
	sch.CreateTimestamp("CreatedAt")
	sch.UpdateTimestamp("UpdatedAt")

	dsn := fmt.Sprintf("sqlite:file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	ds, err := database.Provision(&database.Options{
		URL:         dsn,
		Synchronize: true,
		Entities:    []interface{}{(*note)(nil)},
		Subscribers: []database.Subscriber{autofill.NewListener(reg)},
	})
	require.NoError(t, err)
	require.NoError(t, ds.Connect(context.Background()))
	t.Cleanup(func() { _ = ds.Close() })

	return NewServiceWith[note](ds)
}

func TestServiceSaveAndGet(t *testing.T) {
	svc := newNoteService(t)
	ctx := context.Background()

	n := &note{Body: "hello"}
	require.NoError(t, svc.Save(ctx, n))
	require.NotEmpty(t, n.ID)
	require.NotEmpty(t, n.CreatedAt)

	got, err := svc.Get(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Body)
}

func TestServiceUpdateAndDelete(t *testing.T) {
	svc := newNoteService(t)
	ctx := context.Background()

	n := &note{Body: "draft"}
	require.NoError(t, svc.Save(ctx, n))

	n.Body = "final"
	require.NoError(t, svc.Update(ctx, n))
	assert.NotEmpty(t, n.UpdatedAt)

	require.NoError(t, svc.Delete(ctx, n.ID))
	all, err := svc.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestServiceListAndPage(t *testing.T) {
	svc := newNoteService(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		require.NoError(t, svc.Save(ctx, &note{Body: fmt.Sprintf("n%d", i)}))
	}

	listed, err := svc.List(ctx, types.NewQueryFilter("body = ?", "n2"))
	require.NoError(t, err)
	require.Len(t, listed, 1)

	page, err := svc.Page(ctx, types.NewDefaultPageRequest(1, 3))
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)
	assert.Len(t, page.Items, 3)
}

func TestServiceBuilders(t *testing.T) {
	svc := newNoteService(t)
	ctx := context.Background()

	require.NoError(t, svc.Save(ctx, &note{Body: "raw"}))

	count, err := svc.SelectBuilder().Model((*note)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGlobalInit(t *testing.T) {
	dsn := fmt.Sprintf("sqlite:file:%s?mode=memory&cache=shared", t.Name())
	ds, err := database.Init(context.Background(), &database.Options{
		URL:         dsn,
		Synchronize: true,
		Entities:    []interface{}{(*note)(nil)},
	})
	require.NoError(t, err)
	defer func() { require.NoError(t, database.Close()) }()

	assert.Same(t, ds, database.Default())
	require.NotNil(t, database.GetDB())

	svc := NewService[note]()
	n := &note{ID: "fixed", Body: "global"}
	require.NoError(t, svc.Save(context.Background(), n))

	got, err := svc.Get(context.Background(), "fixed")
	require.NoError(t, err)
	assert.Equal(t, "global", got.Body)
}
