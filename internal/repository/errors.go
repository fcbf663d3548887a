package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ErrNotFound is returned by single-row lookups that match nothing.
var ErrNotFound = errors.New("record not found")

// ErrLedgerConflict is returned by InsertIfAbsent when a confirmed booking
// already holds the (date, slot) pair.
var ErrLedgerConflict = errors.New("slot already booked")

// ErrRejected is returned when Postgres refuses a write because of the data
// itself (data exception or integrity violation). Retrying cannot succeed.
var ErrRejected = errors.New("rejected by database")

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// rejected maps SQLSTATE classes 22 and 23 to ErrRejected.
func rejected(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code.Class() {
	case "22", "23":
		return fmt.Errorf("%w: %s", ErrRejected, pqErr.Message)
	}
	return err
}
