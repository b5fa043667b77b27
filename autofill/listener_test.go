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

package autofill

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type order struct {
	ID        string
	Amount    int
	CreatedAt string
	UpdatedAt string
	CreatedBy string
	UpdatedBy string
}

func newOrderListener(t *testing.T) (*Listener, *Schema, *Config) {
	t.Helper()
	cfg := NewConfig()
	cfg.SetPrimary(PolicyPatch{Generator: Sequence("order_")})
	cfg.SetActor(PolicyPatch{Generator: func() (interface{}, error) { return "system", nil }})

	reg := NewRegistry()
	sch := reg.ModelWithConfig((*order)(nil), cfg)
	sch.Primary("ID")
	sch.CreateTimestamp("CreatedAt")
	sch.UpdateTimestamp("UpdatedAt")
	sch.CreateActor("CreatedBy")
	sch.UpdateActor("UpdatedBy")
	return NewListener(reg), sch, cfg
}

func TestBeforeInsertFillsCreateColumns(t *testing.T) {
	l, _, _ := newOrderListener(t)
	o := &order{Amount: 10}
	require.NoError(t, l.BeforeInsert(context.Background(), o))

	assert.Equal(t, "order_1", o.ID)
	assert.Equal(t, "system", o.CreatedBy)
	require.NotEmpty(t, o.CreatedAt)
	_, err := time.Parse(time.RFC3339Nano, o.CreatedAt)
	assert.NoError(t, err)

	// update-oriented columns are untouched on insert
	assert.Empty(t, o.UpdatedAt)
	assert.Empty(t, o.UpdatedBy)
}

func TestBeforeInsertKeepsCallerValues(t *testing.T) {
	l, _, _ := newOrderListener(t)
	o := &order{ID: "custom-id", CreatedBy: "alice"}
	require.NoError(t, l.BeforeInsert(context.Background(), o))

	assert.Equal(t, "custom-id", o.ID)
	assert.Equal(t, "alice", o.CreatedBy)
	assert.NotEmpty(t, o.CreatedAt)
}

func TestBeforeInsertSequentialIDs(t *testing.T) {
	l, _, _ := newOrderListener(t)
	first, second := &order{}, &order{}
	require.NoError(t, l.BeforeInsert(context.Background(), first))
	require.NoError(t, l.BeforeInsert(context.Background(), second))
	assert.Equal(t, "order_1", first.ID)
	assert.Equal(t, "order_2", second.ID)
}

func TestBeforeUpdateFillsUpdateColumns(t *testing.T) {
	l, _, _ := newOrderListener(t)
	o := &order{ID: "order_1", CreatedAt: "kept"}
	require.NoError(t, l.BeforeUpdate(context.Background(), o))

	assert.NotEmpty(t, o.UpdatedAt)
	assert.Equal(t, "system", o.UpdatedBy)
	// create-oriented columns stay as loaded
	assert.Equal(t, "kept", o.CreatedAt)
	assert.Empty(t, o.CreatedBy)
}

func TestUpdateTimestampsDifferAcrossUpdates(t *testing.T) {
	l, _, _ := newOrderListener(t)
	a, b := &order{ID: "x"}, &order{ID: "x"}
	require.NoError(t, l.BeforeUpdate(context.Background(), a))
	time.Sleep(time.Millisecond)
	require.NoError(t, l.BeforeUpdate(context.Background(), b))
	assert.NotEqual(t, a.UpdatedAt, b.UpdatedAt)
}

func TestNilModelSkipsEvent(t *testing.T) {
	l, _, _ := newOrderListener(t)
	assert.NoError(t, l.BeforeInsert(context.Background(), nil))
	assert.NoError(t, l.BeforeUpdate(context.Background(), nil))
	assert.NoError(t, l.BeforeUpdate(context.Background(), (*order)(nil)))
}

func TestUnregisteredModelIsIgnored(t *testing.T) {
	l, _, _ := newOrderListener(t)
	type visitor struct{ Name string }
	v := &visitor{}
	require.NoError(t, l.BeforeInsert(context.Background(), v))
	assert.Empty(t, v.Name)
}

func TestGeneratorFailureAbortsEvent(t *testing.T) {
	cfg := NewConfig() // primary generator left unconfigured
	reg := NewRegistry()
	sch := reg.ModelWithConfig((*order)(nil), cfg)
	sch.Primary("ID")
	l := NewListener(reg)

	err := l.BeforeInsert(context.Background(), &order{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGeneratorNotConfigured)
}

func TestCustomColumnGeneration(t *testing.T) {
	cfg := NewConfig()
	reg := NewRegistry()
	sch := reg.ModelWithConfig((*order)(nil), cfg)
	_, err := sch.Custom("CreatedBy",
		WithTrigger(TriggerOnCreate),
		WithGenerator(func() (interface{}, error) { return "X", nil }))
	require.NoError(t, err)
	l := NewListener(reg)

	generated := &order{}
	require.NoError(t, l.BeforeInsert(context.Background(), generated))
	assert.Equal(t, "X", generated.CreatedBy)

	preset := &order{CreatedBy: "Y"}
	require.NoError(t, l.BeforeInsert(context.Background(), preset))
	assert.Equal(t, "Y", preset.CreatedBy)

	// trigger is create-only
	updated := &order{}
	require.NoError(t, l.BeforeUpdate(context.Background(), updated))
	assert.Empty(t, updated.CreatedBy)
}

func TestCustomGeneratorErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	reg := NewRegistry()
	sch := reg.ModelWithConfig((*order)(nil), NewConfig())
	_, err := sch.Custom("CreatedBy",
		WithTrigger(TriggerOnCreate),
		WithGenerator(func() (interface{}, error) { return nil, boom }))
	require.NoError(t, err)

	err = NewListener(reg).BeforeInsert(context.Background(), &order{})
	assert.ErrorIs(t, err, boom)
}

func TestPrimaryFilledAfterOrdinaryColumns(t *testing.T) {
	var filled []string
	reg := NewRegistry()
	cfg := NewConfig()
	cfg.SetPrimary(PolicyPatch{Generator: func() (interface{}, error) {
		filled = append(filled, "primary")
		return "id", nil
	}})
	sch := reg.ModelWithConfig((*order)(nil), cfg)
	sch.Primary("ID")
	_, err := sch.Custom("CreatedBy",
		WithTrigger(TriggerOnCreate),
		WithGenerator(func() (interface{}, error) {
			filled = append(filled, "ordinary")
			return "who", nil
		}))
	require.NoError(t, err)

	require.NoError(t, NewListener(reg).BeforeInsert(context.Background(), &order{}))
	assert.Equal(t, []string{"ordinary", "primary"}, filled)
}

func TestAfterLoadIsNoOp(t *testing.T) {
	l, _, _ := newOrderListener(t)
	o := &order{ID: "keep", CreatedAt: "keep"}
	require.NoError(t, l.AfterLoad(context.Background(), o))
	assert.Equal(t, "keep", o.ID)
	assert.Equal(t, "keep", o.CreatedAt)
}

func TestAssignTimeToStringViaTransform(t *testing.T) {
	// timestamp fields declared as time.Time take the raw generated value
	type event struct {
		At time.Time
	}
	reg := NewRegistry()
	sch := reg.ModelWithConfig((*event)(nil), NewConfig())
	sch.CreateTimestamp("At")

	e := &event{}
	require.NoError(t, NewListener(reg).BeforeInsert(context.Background(), e))
	assert.False(t, e.At.IsZero())
}
