// Package db provides the embedded schema of the scored order sink.
package db

import _ "embed"

// Schema contains the DDL statements for the order_discounts table.
//
//go:embed migrations/001_schema.sql
var Schema string
