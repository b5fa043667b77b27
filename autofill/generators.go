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
	"sync/atomic"

	"github.com/google/uuid"
)

// UUID returns a generator producing random UUID strings, suitable as a
// primary-key policy generator.
func UUID() Generator {
	return func() (interface{}, error) {
		return uuid.NewString(), nil
	}
}

// Sequence returns a generator producing prefix1, prefix2, ... The counter is
// owned by the returned generator and is safe for concurrent use.
func Sequence(prefix string) Generator {
	var n uint64
	return func() (interface{}, error) {
		return fmt.Sprintf("%s%d", prefix, atomic.AddUint64(&n, 1)), nil
	}
}
