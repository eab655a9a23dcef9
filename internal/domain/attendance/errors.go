package attendance

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("attendance not found")
	ErrDuplicateEntry    = errors.New("duplicate attendance entry")
	ErrEmptyBatch        = errors.New("at least one attendance record is required")
	ErrReferenceNotFound = errors.New("worker, contractor or site not found")
	ErrRemarksTooLong    = errors.New("remarks cannot exceed 500 characters")
	ErrInvalidRange      = errors.New("end date must be on or after start date")
)

// DuplicateEntryError names the tuple that already has an entry.
type DuplicateEntryError struct {
	Key Key
}

func (e *DuplicateEntryError) Error() string {
	return fmt.Sprintf("duplicate attendance entry for worker %s at site %s on %s",
		e.Key.WorkerID, e.Key.SiteID, e.Key.Date.Format("2006-01-02"))
}

func (e *DuplicateEntryError) Unwrap() error {
	return ErrDuplicateEntry
}
