// Package config loads runtime configuration for the portal server and
// terminal client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags, which override earlier values.
//
// # JSON schema
//
// Durations use timex.Duration, so "24h" and integer nanoseconds both work:
//
//	{
//	  "database_driver": "sqlite",
//	  "database_dsn": "/var/lib/portal/portal.db",
//	  "session_ttl": "24h",
//	  "simulate_latency": true,
//	  "s3_bucket": "audit"
//	}
//
// Environment variables are not read; use the JSON file or flags.
package config
