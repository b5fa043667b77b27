// Package middleware binds provisioned data sources into an echo request
// pipeline so downstream handlers can reach the database through the
// request-scoped context.
package middleware
