// Package store persists reviews and pipeline recommendations in a local
// SQLite database, with WAL journaling and busy-retry on write contention.
package store
