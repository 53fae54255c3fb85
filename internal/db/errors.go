package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"
)

// Sentinel errors for database operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrRecordExists indicates a CREATE hit an existing record ID.
	// Message IDs are random UUIDs, so this only happens on a retried write.
	ErrRecordExists = errors.New("record already exists")

	// ErrTransactionConflict indicates concurrent writers touched the same records.
	// Callers may retry.
	ErrTransactionConflict = errors.New("transaction conflict")

	// ErrSchemaViolation indicates a field assertion or type check rejected the write.
	ErrSchemaViolation = errors.New("schema violation")
)

// wrapQueryError inspects a SurrealDB error and wraps it with the matching
// sentinel. Unknown errors are returned unchanged.
func wrapQueryError(err error) error {
	if err == nil {
		return nil
	}

	var queryErr *surrealdb.QueryError
	if errors.As(err, &queryErr) {
		msg := queryErr.Message
		switch {
		case strings.Contains(msg, "already exists"):
			return fmt.Errorf("%w: %s", ErrRecordExists, msg)
		case strings.Contains(msg, "Transaction conflict"):
			return fmt.Errorf("%w: %s", ErrTransactionConflict, msg)
		case strings.Contains(msg, "Found") && strings.Contains(msg, "but expected"),
			strings.Contains(msg, "assertion"):
			return fmt.Errorf("%w: %s", ErrSchemaViolation, msg)
		}
	}

	return err
}
