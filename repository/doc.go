// Package repository provides generic Bun-backed repositories that run the
// owning data source's lifecycle subscribers around every write and read.
package repository
