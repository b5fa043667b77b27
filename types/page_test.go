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

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageRequestDefaults(t *testing.T) {
	p := NewDefaultPageRequest(0, 0)
	assert.Equal(t, 1, p.GetPage())
	assert.Equal(t, 10, p.GetPageSize())
	assert.Equal(t, 0, p.GetOffset())
	assert.Nil(t, p.GetFilter())
	assert.Empty(t, p.GetOrders())
}

func TestPageRequestOffset(t *testing.T) {
	p := NewDefaultPageRequest(3, 20)
	assert.Equal(t, 40, p.GetOffset())
}

func TestPaginationPages(t *testing.T) {
	p := NewDefaultPagination[int](1, 10)
	p.Total = 25
	assert.Equal(t, 3, p.Pages())
	p.Total = 0
	assert.Equal(t, 0, p.Pages())
}

func TestQueryFilter(t *testing.T) {
	f := NewQueryFilter("name = ? AND age > ?", "ada", 30)
	assert.Equal(t, "name = ? AND age > ?", f.Schema)
	assert.Equal(t, []interface{}{"ada", 30}, f.Args)
}
