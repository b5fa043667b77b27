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

package middleware

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/tomoncle/oriole/database"
	"github.com/uptrace/bun"
)

// DataSourceKey is the echo context key the data source is stored under.
const DataSourceKey = "oriole:datasource"

type ctxKey struct{}

// Database returns an echo middleware that attaches the data source to every
// request, both on the echo context and on the request's context.Context, and
// then invokes the next handler. Errors from downstream handlers propagate
// unchanged.
func Database(ds *database.DataSource) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(DataSourceKey, ds)
			ctx := context.WithValue(c.Request().Context(), ctxKey{}, ds)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// FromEcho returns the data source attached to the echo context, or nil.
func FromEcho(c echo.Context) *database.DataSource {
	if ds, ok := c.Get(DataSourceKey).(*database.DataSource); ok {
		return ds
	}
	return nil
}

// FromContext returns the data source attached to a request context, or nil.
// It lets non-echo code, such as repositories, reach the request's database.
func FromContext(ctx context.Context) *database.DataSource {
	if ds, ok := ctx.Value(ctxKey{}).(*database.DataSource); ok {
		return ds
	}
	return nil
}

// DB returns the Bun database of the attached data source, or nil.
func DB(c echo.Context) *bun.DB {
	if ds := FromEcho(c); ds != nil {
		return ds.DB()
	}
	return nil
}
