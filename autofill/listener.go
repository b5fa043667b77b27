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
	"fmt"
	"reflect"
)

type fillPhase int

const (
	phaseInsert fillPhase = iota
	phaseUpdate
)

// Listener fills unset audit columns when an entity is about to be written.
// It satisfies the database.Subscriber contract and is prepended to every
// provisioned data source's subscriber list.
//
// A field counts as unset when it holds its type's zero value; any value the
// caller supplied explicitly always wins over a generated one.
type Listener struct {
	registry *Registry
}

// NewListener returns a listener reading entity schemas from reg.
func NewListener(reg *Registry) *Listener {
	return &Listener{registry: reg}
}

// DefaultListener returns a listener over the process-wide registry.
func DefaultListener() *Listener {
	return NewListener(defaultRegistry)
}

// BeforeInsert fills every unset create-oriented column of model, ordinary
// columns first and primary columns in a second pass, before the insert is
// persisted. A failing generator aborts the whole insert.
func (l *Listener) BeforeInsert(_ context.Context, model interface{}) error {
	sch, rv, ok := l.resolve(model)
	if !ok {
		return nil
	}
	cols := sch.Columns()
	for _, col := range cols {
		if col.Primary {
			continue
		}
		if err := l.fill(sch, rv, col, phaseInsert); err != nil {
			return err
		}
	}
	for _, col := range cols {
		if !col.Primary {
			continue
		}
		if err := l.fill(sch, rv, col, phaseInsert); err != nil {
			return err
		}
	}
	return nil
}

// BeforeUpdate fills every unset update-oriented column of model. A nil
// entity skips the event entirely, so partial updates that omit a tracked
// field still get a generated value for it.
func (l *Listener) BeforeUpdate(_ context.Context, model interface{}) error {
	sch, rv, ok := l.resolve(model)
	if !ok {
		return nil
	}
	for _, col := range sch.Columns() {
		if err := l.fill(sch, rv, col, phaseUpdate); err != nil {
			return err
		}
	}
	return nil
}

// AfterLoad is a reserved extension point and performs no mutation; inbound
// transforms belong to the mapping pipeline, not to this listener.
func (l *Listener) AfterLoad(context.Context, interface{}) error {
	return nil
}

func (l *Listener) resolve(model interface{}) (*Schema, reflect.Value, bool) {
	if model == nil {
		return nil, reflect.Value{}, false
	}
	rv := reflect.ValueOf(model)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return nil, reflect.Value{}, false
	}
	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return nil, reflect.Value{}, false
	}
	sch := l.registry.lookup(rv.Type())
	if sch == nil {
		return nil, reflect.Value{}, false
	}
	return sch, rv, true
}

func (l *Listener) fill(sch *Schema, rv reflect.Value, col *Column, phase fillPhase) error {
	switch phase {
	case phaseInsert:
		if !col.Marker.FiresOnInsert() {
			return nil
		}
	case phaseUpdate:
		if !col.Marker.FiresOnUpdate() {
			return nil
		}
	}

	fv := rv.FieldByName(col.Field)
	if !fv.IsValid() || !fv.CanSet() {
		return fmt.Errorf("autofill: %s has no settable field %q", rv.Type().Name(), col.Field)
	}
	if !fv.IsZero() {
		// explicit caller value wins, generator never invoked
		return nil
	}

	gen := col.Marker.Generator
	var toStore Transform
	if policy := sch.cfg.Policy(col.Marker.Role); policy != nil {
		if gen == nil {
			gen = policy.Generator
		}
		toStore = policy.ToStore
	}
	if gen == nil {
		return nil
	}

	value, err := gen()
	if err != nil {
		return fmt.Errorf("autofill %s.%s: %w", rv.Type().Name(), col.Field, err)
	}
	return assign(fv, value, toStore, rv.Type().Name(), col.Field)
}

// assign sets value on the field, converting through the outbound transform
// when the raw value does not fit the field's type.
func assign(fv reflect.Value, value interface{}, toStore Transform, model, field string) error {
	if value == nil {
		return nil
	}
	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(fv.Type()) {
		fv.Set(val)
		return nil
	}
	if toStore != nil {
		stored, err := toStore(value)
		if err != nil {
			return fmt.Errorf("autofill %s.%s: %w", model, field, err)
		}
		if stored != nil {
			sv := reflect.ValueOf(stored)
			if sv.Type().AssignableTo(fv.Type()) {
				fv.Set(sv)
				return nil
			}
		}
	}
	// numeric widening etc.; never convert non-strings into a string field,
	// reflect would treat the value as a rune
	if val.Type().ConvertibleTo(fv.Type()) && (fv.Kind() != reflect.String || val.Kind() == reflect.String) {
		fv.Set(val.Convert(fv.Type()))
		return nil
	}
	return fmt.Errorf("autofill %s.%s: cannot assign %T to %s", model, field, value, fv.Type())
}
