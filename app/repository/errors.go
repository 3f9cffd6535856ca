// Package repository holds the storage layer: users in PostgreSQL (gorm),
// complaints and their aggregations in MongoDB, revoked tokens in Redis.
//
// The sentinel errors below let services tell "missing" and "duplicate"
// apart from storage failures without importing driver packages.
package repository

import "errors"

// ErrNotFound is returned when the requested record does not exist,
// including malformed identifiers that can never match a record.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a unique constraint (user email) is violated.
var ErrDuplicate = errors.New("duplicate record")

// ErrStaleStatus is returned by guarded complaint updates when the
// complaint's status changed between the read and the write.
var ErrStaleStatus = errors.New("complaint status changed concurrently")
