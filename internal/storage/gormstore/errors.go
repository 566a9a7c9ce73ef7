package gormstore

import "strings"

// isUniqueViolation reports whether err looks like a Postgres unique-index
// violation (SQLSTATE 23505), without importing the pq/pgx driver types
// directly so this package stays usable against any gorm.io/driver.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "23505") || strings.Contains(msg, "duplicate key value")
}

// isSerializationFailure reports whether err is a Postgres serialization
// failure under SERIALIZABLE isolation (SQLSTATE 40001).
func isSerializationFailure(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "40001") || strings.Contains(msg, "could not serialize access")
}
