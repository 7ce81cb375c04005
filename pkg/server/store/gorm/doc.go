// Package gorm provides GORM-based implementations of the store interfaces
// defined in the parent store package.
//
// The implementations run unchanged on Postgres and SQLite. Soft deletes rely
// on gorm.DeletedAt, so plain queries only see live rows; Unscoped is used
// where a caller needs deleted rows too.
package gorm
