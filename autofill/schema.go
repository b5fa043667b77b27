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
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"
)

// Column is the descriptor produced by a schema registration. Type and Length
// record the resolved storage column shape; Marker carries the generation
// behavior consumed by the listener.
type Column struct {
	Field   string // Go struct field name
	Name    string // database column name
	Type    string
	Length  int
	Primary bool
	Marker  Marker
}

// ColumnOption overrides a policy default for a single registration.
type ColumnOption func(*columnOptions)

type columnOptions struct {
	name      string
	typ       string
	length    int
	trigger   Trigger
	generator Generator
}

// WithName sets the database column name, overriding the snake-case default.
func WithName(name string) ColumnOption {
	return func(o *columnOptions) { o.name = name }
}

// WithType sets the storage type tag, overriding the policy default.
func WithType(typ string) ColumnOption {
	return func(o *columnOptions) { o.typ = typ }
}

// WithLength sets the storage length, overriding the policy default.
func WithLength(length int) ColumnOption {
	return func(o *columnOptions) { o.length = length }
}

// WithTrigger sets when a custom column's generator fires. Only meaningful
// with Schema.Custom and must be paired with WithGenerator.
func WithTrigger(trigger Trigger) ColumnOption {
	return func(o *columnOptions) { o.trigger = trigger }
}

// WithGenerator sets the generator of a custom column. Only meaningful with
// Schema.Custom and must be paired with WithTrigger.
func WithGenerator(g Generator) ColumnOption {
	return func(o *columnOptions) { o.generator = g }
}

// Schema is the audit-column map of one entity type, keyed by Go field name.
// Registrations happen once at program initialization; the listener reads the
// schema on every insert/update event.
type Schema struct {
	model   reflect.Type
	cfg     *Config
	mu      sync.RWMutex
	columns []*Column
	byField map[string]*Column
}

// Registry maps entity struct types to their schemas.
type Registry struct {
	mu      sync.RWMutex
	schemas map[reflect.Type]*Schema
}

// NewRegistry returns an empty schema registry.
func NewRegistry() *Registry {
	return &Registry{schemas: map[reflect.Type]*Schema{}}
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry consumed by the default
// listener.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Model returns the schema for the given entity, creating it against the
// default policy configuration. The model argument is a struct pointer and
// may be a typed nil, e.g. (*Book)(nil).
func (r *Registry) Model(model interface{}) *Schema {
	return r.ModelWithConfig(model, Default())
}

// ModelWithConfig returns the schema for the given entity, creating it
// against cfg. Repeated calls for the same type return the existing schema.
func (r *Registry) ModelWithConfig(model interface{}, cfg *Config) *Schema {
	t := structType(model)
	if t == nil {
		panic(fmt.Sprintf("autofill: model must be a struct or struct pointer, got %T", model))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.schemas[t]; ok {
		return s
	}
	s := &Schema{model: t, cfg: cfg, byField: map[string]*Column{}}
	r.schemas[t] = s
	return s
}

func (r *Registry) lookup(t reflect.Type) *Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.schemas[t]
}

func structType(model interface{}) reflect.Type {
	t := reflect.TypeOf(model)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	return t
}

// Primary registers a primary-key column on field.
func (s *Schema) Primary(field string, opts ...ColumnOption) *Column {
	return s.register(field, RolePrimary, true, opts)
}

// CreateTimestamp registers a creation-timestamp column on field.
func (s *Schema) CreateTimestamp(field string, opts ...ColumnOption) *Column {
	return s.register(field, RoleCreateTimestamp, false, opts)
}

// UpdateTimestamp registers an update-timestamp column on field.
func (s *Schema) UpdateTimestamp(field string, opts ...ColumnOption) *Column {
	return s.register(field, RoleUpdateTimestamp, false, opts)
}

// CreateActor registers a creator-id column on field.
func (s *Schema) CreateActor(field string, opts ...ColumnOption) *Column {
	return s.register(field, RoleCreateActor, false, opts)
}

// UpdateActor registers an updater-id column on field.
func (s *Schema) UpdateActor(field string, opts ...ColumnOption) *Column {
	return s.register(field, RoleUpdateActor, false, opts)
}

// Custom registers a column with a literal trigger/generator pair. Supplying
// only one of WithTrigger and WithGenerator is a configuration error; with
// neither, the column is tracked but never generated.
func (s *Schema) Custom(field string, opts ...ColumnOption) (*Column, error) {
	o := applyOptions(opts)
	if (o.trigger == TriggerNone) != (o.generator == nil) {
		return nil, fmt.Errorf("autofill: custom column %s.%s requires both a trigger and a generator, or neither",
			s.model.Name(), field)
	}
	col := s.put(field, o, Marker{Role: RoleCustom, Trigger: o.trigger, Generator: o.generator}, false)
	return col, nil
}

func (s *Schema) register(field string, role Role, primary bool, opts []ColumnOption) *Column {
	o := applyOptions(opts)
	return s.put(field, o, Marker{Role: role}, primary)
}

func (s *Schema) put(field string, o *columnOptions, marker Marker, primary bool) *Column {
	if _, ok := s.model.FieldByName(field); !ok {
		panic(fmt.Sprintf("autofill: %s has no field %q", s.model.Name(), field))
	}

	typ, length := defaultColumnType, defaultColumnLength
	if policy := s.cfg.Policy(marker.Role); policy != nil {
		typ, length = policy.Type, policy.Length
	}
	if o.typ != "" {
		typ = o.typ
	}
	if o.length > 0 {
		length = o.length
	}
	name := o.name
	if name == "" {
		name = snakeCase(field)
	}

	col := &Column{
		Field:   field,
		Name:    name,
		Type:    typ,
		Length:  length,
		Primary: primary,
		Marker:  marker,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.byField[field]; ok {
		// re-registration replaces in place, keeping column order
		for i, c := range s.columns {
			if c == prev {
				s.columns[i] = col
				break
			}
		}
	} else {
		s.columns = append(s.columns, col)
	}
	s.byField[field] = col
	return col
}

// Columns returns the registered columns in registration order.
func (s *Schema) Columns() []*Column {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Column, len(s.columns))
	copy(out, s.columns)
	return out
}

// Column returns the descriptor registered for the given Go field, or nil.
func (s *Schema) Column(field string) *Column {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byField[field]
}

func applyOptions(opts []ColumnOption) *columnOptions {
	o := &columnOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func snakeCase(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (!unicode.IsUpper(runes[i-1]) || (i+1 < len(runes) && !unicode.IsUpper(runes[i+1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
