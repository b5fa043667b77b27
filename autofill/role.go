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

// Role identifies the audit purpose of a registered column.
type Role int

const (
	RolePrimary Role = iota
	RoleCreateTimestamp
	RoleUpdateTimestamp
	RoleCreateActor
	RoleUpdateActor
	// RoleCustom marks a column whose generation is described by an explicit
	// trigger/generator pair instead of a global policy.
	RoleCustom
)

func (r Role) String() string {
	switch r {
	case RolePrimary:
		return "primary"
	case RoleCreateTimestamp:
		return "create-timestamp"
	case RoleUpdateTimestamp:
		return "update-timestamp"
	case RoleCreateActor:
		return "create-actor"
	case RoleUpdateActor:
		return "update-actor"
	case RoleCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// Trigger describes when a custom column's generator fires.
type Trigger int

const (
	TriggerNone Trigger = iota
	TriggerOnCreate
	TriggerOnUpdate
	TriggerOnCreateAndUpdate
)

func (t Trigger) String() string {
	switch t {
	case TriggerOnCreate:
		return "on-create"
	case TriggerOnUpdate:
		return "on-update"
	case TriggerOnCreateAndUpdate:
		return "on-create-and-update"
	default:
		return "none"
	}
}

// Marker ties a registered column to its generation behavior. For role-based
// columns the generator is resolved from the policy configuration at event
// time; for custom columns Trigger and Generator are set literally.
// Markers are immutable after registration.
type Marker struct {
	Role      Role
	Trigger   Trigger
	Generator Generator
}

// FiresOnInsert reports whether the marker requests generation before insert.
func (m Marker) FiresOnInsert() bool {
	switch m.Role {
	case RolePrimary, RoleCreateTimestamp, RoleCreateActor:
		return true
	case RoleCustom:
		return m.Trigger == TriggerOnCreate || m.Trigger == TriggerOnCreateAndUpdate
	default:
		return false
	}
}

// FiresOnUpdate reports whether the marker requests generation before update.
func (m Marker) FiresOnUpdate() bool {
	switch m.Role {
	case RoleUpdateTimestamp, RoleUpdateActor:
		return true
	case RoleCustom:
		return m.Trigger == TriggerOnUpdate || m.Trigger == TriggerOnCreateAndUpdate
	default:
		return false
	}
}
