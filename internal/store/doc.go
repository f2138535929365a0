// Package store keeps the combined market table and fishing port summaries
// in SQL. SQLite (modernc.org/sqlite, no cgo) is the default; PostgreSQL is
// reached through pgx's database/sql driver. Queries are written with ?
// placeholders and rebound for PostgreSQL.
package store
