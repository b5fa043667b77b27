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
	"sort"
	"sync"
)

var defaultEntityRegistry = newEntityRegistry()

// Entity wraps a Bun model registered for table synchronization. Instance
// returns a struct pointer compatible with Bun, and Priority controls table
// creation order (lower values first).
type Entity interface {
	Instance() interface{}
	Priority() int
}

// EntityRegistry stores entities and exposes them in a deterministic order.
type EntityRegistry interface {
	Register(entity Entity)
	Entities() []Entity
}

type entityRegistry struct {
	entities []Entity
	mutex    sync.RWMutex
}

func newEntityRegistry() EntityRegistry {
	return &entityRegistry{entities: make([]Entity, 0)}
}

func (r *entityRegistry) Register(entity Entity) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.entities = append(r.entities, entity)
}

func (r *entityRegistry) Entities() []Entity {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]Entity, len(r.entities))
	copy(result, r.entities)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Priority() < result[j].Priority()
	})
	return result
}

type entityAdapter struct {
	instance interface{}
	priority int
}

func (a *entityAdapter) Instance() interface{} { return a.instance }

func (a *entityAdapter) Priority() int { return a.priority }

// RegisterEntity adds a model instance to the default registry; every
// provisioned data source synchronizes it in addition to Options.Entities.
func RegisterEntity(instance interface{}, priority int) {
	defaultEntityRegistry.Register(&entityAdapter{instance: instance, priority: priority})
}

// RegisteredEntityInstances returns the registered model instances sorted by
// ascending priority.
func RegisteredEntityInstances() []interface{} {
	entities := defaultEntityRegistry.Entities()
	instances := make([]interface{}, len(entities))
	for i, entity := range entities {
		instances[i] = entity.Instance()
	}
	return instances
}
