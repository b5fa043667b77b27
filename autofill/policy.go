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
	"errors"
	"fmt"
	"time"
)

// Generator produces a value for an unset column. It takes no arguments and
// fails when the policy it belongs to has not been configured.
type Generator func() (interface{}, error)

// Transform converts a value between its in-memory and storage
// representations.
type Transform func(value interface{}) (interface{}, error)

// ErrGeneratorNotConfigured is returned by the default primary and actor
// generators. Callers must configure a generator for those roles before the
// first insert that uses them.
var ErrGeneratorNotConfigured = errors.New("autofill: generator not configured")

// ColumnPolicy holds the process-wide defaults for one column role: the
// storage type tag and length used when a registration does not override
// them, the value generator, and the outbound/inbound transforms.
type ColumnPolicy struct {
	Type      string
	Length    int
	Generator Generator
	ToStore   Transform
	FromStore Transform
}

// PolicyPatch is a partial policy. Zero-valued fields are ignored when the
// patch is merged into an existing policy.
type PolicyPatch struct {
	Type      string
	Length    int
	Generator Generator
	ToStore   Transform
	FromStore Transform
}

const (
	defaultColumnType      = "varchar"
	defaultColumnLength    = 255
	defaultTimestampLength = 50
)

// Config holds the column policies for the five audit roles. A process-wide
// instance is available via Default; libraries embedding autofill may build
// their own and pass it to Registry.ModelWithConfig.
//
// Policies are expected to be configured once during process startup, before
// requests are served. Mutating a policy while writes are in flight is not
// guarded and is the caller's responsibility to avoid.
type Config struct {
	policies map[Role]*ColumnPolicy
}

// NewConfig returns a Config with the default policies: primary and actor
// roles fail until a generator is configured, timestamp roles generate the
// current instant stored as an RFC 3339 string in a varchar(50) column.
func NewConfig() *Config {
	return &Config{
		policies: map[Role]*ColumnPolicy{
			RolePrimary:         unconfiguredPolicy(RolePrimary),
			RoleCreateActor:     unconfiguredPolicy(RoleCreateActor),
			RoleUpdateActor:     unconfiguredPolicy(RoleUpdateActor),
			RoleCreateTimestamp: timestampPolicy(),
			RoleUpdateTimestamp: timestampPolicy(),
		},
	}
}

func unconfiguredPolicy(role Role) *ColumnPolicy {
	return &ColumnPolicy{
		Type:   defaultColumnType,
		Length: defaultColumnLength,
		Generator: func() (interface{}, error) {
			return nil, fmt.Errorf("%w for role %s", ErrGeneratorNotConfigured, role)
		},
	}
}

func timestampPolicy() *ColumnPolicy {
	return &ColumnPolicy{
		Type:   defaultColumnType,
		Length: defaultTimestampLength,
		Generator: func() (interface{}, error) {
			return time.Now(), nil
		},
		ToStore:   timestampToStore,
		FromStore: timestampFromStore,
	}
}

func timestampToStore(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case time.Time:
		return v.Format(time.RFC3339Nano), nil
	case *time.Time:
		if v == nil {
			return nil, nil
		}
		return v.Format(time.RFC3339Nano), nil
	case string:
		return v, nil
	default:
		return nil, fmt.Errorf("autofill: cannot store %T as a timestamp", value)
	}
}

func timestampFromStore(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case string:
		return time.Parse(time.RFC3339Nano, v)
	case []byte:
		return time.Parse(time.RFC3339Nano, string(v))
	case time.Time:
		return v, nil
	default:
		return nil, fmt.Errorf("autofill: cannot parse %T as a timestamp", value)
	}
}

// Set merges the non-absent fields of patch into the policy for role. The
// unspecified fields keep their current values; there is no way to remove a
// policy, the last writer wins.
func (c *Config) Set(role Role, patch PolicyPatch) error {
	policy, ok := c.policies[role]
	if !ok {
		return fmt.Errorf("autofill: role %s has no global policy", role)
	}
	if patch.Type != "" {
		policy.Type = patch.Type
	}
	if patch.Length > 0 {
		policy.Length = patch.Length
	}
	if patch.Generator != nil {
		policy.Generator = patch.Generator
	}
	if patch.ToStore != nil {
		policy.ToStore = patch.ToStore
	}
	if patch.FromStore != nil {
		policy.FromStore = patch.FromStore
	}
	return nil
}

// SetPrimary merges patch into the primary-key policy.
func (c *Config) SetPrimary(patch PolicyPatch) {
	_ = c.Set(RolePrimary, patch)
}

// SetActor merges patch into both the create-actor and update-actor policies.
func (c *Config) SetActor(patch PolicyPatch) {
	_ = c.Set(RoleCreateActor, patch)
	_ = c.Set(RoleUpdateActor, patch)
}

// SetTimestamp merges patch into both timestamp policies.
func (c *Config) SetTimestamp(patch PolicyPatch) {
	_ = c.Set(RoleCreateTimestamp, patch)
	_ = c.Set(RoleUpdateTimestamp, patch)
}

// Policy returns the live policy for role, or nil for RoleCustom.
func (c *Config) Policy(role Role) *ColumnPolicy {
	return c.policies[role]
}

var defaultConfig = NewConfig()

// Default returns the process-wide policy configuration used by
// Registry.Model and the default listener.
func Default() *Config {
	return defaultConfig
}
