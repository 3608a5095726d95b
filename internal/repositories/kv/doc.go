// Package kv is the persistence shim every portal service sits on: a single
// key-value table holding one JSON document per key.
//
// Repository works on raw bytes and has one implementation per database
// (SQLiteRepository for the local file, PostgresRepository for a shared
// server). Both accept a dbx.DBTX, so the same code runs against *sql.DB or
// inside a transaction. Store layers string and JSON access on top and tags
// every storage failure with common.ErrPersistence.
package kv
