// Package sqldocs exposes the state table DDL for the SQL gateways directly
// from the docs tree.
package sqldocs

import _ "embed"

// SQLite contains the SQLite state table DDL.
//
//go:embed sqlite.sql
var SQLite string

// Postgres contains the Postgres state table DDL.
//
//go:embed postgres.sql
var Postgres string
