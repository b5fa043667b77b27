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
	"github.com/stretchr/testify/require"
)

func TestJSONObjectScanVariants(t *testing.T) {
	var fromBytes JSONObject
	require.NoError(t, fromBytes.Scan([]byte(`{"a":1}`)))
	assert.Equal(t, float64(1), fromBytes["a"])

	// sqlite hands back strings for json columns
	var fromString JSONObject
	require.NoError(t, fromString.Scan(`{"b":"x"}`))
	assert.Equal(t, "x", fromString["b"])

	var fromNil JSONObject
	require.NoError(t, fromNil.Scan(nil))
	assert.NotNil(t, fromNil)
	assert.Empty(t, fromNil)

	assert.Error(t, fromNil.Scan(42))
}

func TestJSONObjectValue(t *testing.T) {
	v, err := JSONObject{"a": 1}.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(v.([]byte)))

	v, err = JSONObject(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestJSONArrayRoundTrip(t *testing.T) {
	arr := JSONArray{{"a": float64(1)}, {"b": "x"}}
	v, err := arr.Value()
	require.NoError(t, err)

	var got JSONArray
	require.NoError(t, got.Scan(v))
	assert.Equal(t, arr, got)

	var fromNil JSONArray
	require.NoError(t, fromNil.Scan(nil))
	assert.NotNil(t, fromNil)
	assert.Empty(t, fromNil)
}
