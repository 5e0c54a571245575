package tablekit

import (
	"errors"
	"fmt"

	mssql "github.com/denisenkom/go-mssqldb"
)

// ErrValidation is returned when a value does not pass field validation,
// or when an entity references columns the table does not have.
var ErrValidation = errors.New("validation error")

// ErrMissingKey is returned by Update/Delete when the key field is unset.
var ErrMissingKey = errors.New("missing primary key")

// ErrNotFound is returned when Update/Delete target a key with no row.
var ErrNotFound = errors.New("record not found")

// ErrNoChanges is returned by Update when no field differs from the
// loaded row.
var ErrNoChanges = errors.New("no fields changed")

// ErrUnboundedMutation is returned by UpdateRecordset/DeleteFrom when no
// where condition is given. Full-table mutations are never issued.
var ErrUnboundedMutation = errors.New("bulk mutation requires a where condition")

// ErrConstraint marks a backend-reported constraint violation. The
// surrounding transaction has already been rolled back when it surfaces.
var ErrConstraint = errors.New("constraint violation")

// ErrTransport marks a driver or connectivity failure.
var ErrTransport = errors.New("database error")

// ErrEmptyTable is returned when an entity declares no table name.
var ErrEmptyTable = errors.New("empty table name")

// ErrReleased is returned when a session is used after Release().
var ErrReleased = errors.New("session released")

// SQL Server error numbers that report constraint violations.
const (
	sqlErrConstraint = 547  // CHECK / FOREIGN KEY
	sqlErrNullInsert = 515  // cannot insert NULL
	sqlErrDupIndex   = 2601 // duplicate key, unique index
	sqlErrDupUnique  = 2627 // duplicate key, unique constraint
)

// classify wraps a backend error with operation context, mapping
// constraint-class driver errors onto ErrConstraint and everything else
// onto ErrTransport.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var se mssql.Error
	if errors.As(err, &se) {
		switch se.SQLErrorNumber() {
		case sqlErrConstraint, sqlErrNullInsert, sqlErrDupIndex, sqlErrDupUnique:
			return fmt.Errorf("%s: %w: %v", op, ErrConstraint, err)
		}
	}
	return fmt.Errorf("%s: %w: %v", op, ErrTransport, err)
}
