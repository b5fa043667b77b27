// Package autofill populates audit columns (primary key, creation/update
// timestamps, creator/updater ids) on entities at write time, driven by an
// explicit per-entity column registry and entity lifecycle events.
package autofill
