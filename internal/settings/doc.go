// Package settings persists small client preferences in SQLite.
//
// Each preference is a single string value stored under a string key in the
// settings table created by the embedded migrations. The preferred UI
// language is the only value written today.
package settings
