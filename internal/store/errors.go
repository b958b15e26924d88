package store

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrEmptyDomain is returned when a record is written without a domain key
	ErrEmptyDomain = errors.New("domain key is required")
	// ErrUnsupportedDriver is returned when the configured database driver is unknown
	ErrUnsupportedDriver = errors.New("unsupported database driver")
	// ErrSchema is returned when the schema cannot be created
	ErrSchema = errors.New("failed to create schema")
	// ErrQuery is returned when a statement fails
	ErrQuery = errors.New("database query failed")
	// ErrEncode is returned when a record cannot be encoded or decoded for storage
	ErrEncode = errors.New("failed to encode record")
)
