// Package database provisions Bun-backed connections from a small option
// struct (with environment fallbacks and URL-scheme type inference), wires
// entity lifecycle subscribers, and provides query hooks, health checks, and
// SQL error classification.
package database
