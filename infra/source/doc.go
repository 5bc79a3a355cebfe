// Package source implements pricing.DataSource over a PostgREST API, a SQL
// database through gorm, and a static YAML fixture file.
package source
