package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Cache errors
	ErrNoCachedData  = fmt.Errorf("no cached data")
	ErrSpanOverlap   = fmt.Errorf("span overlaps cached range")
	ErrEntryNotFound = fmt.Errorf("cache entry not found")

	// Content index errors
	ErrRecordNotFound = fmt.Errorf("media record not found")
	ErrNotPending     = fmt.Errorf("media record is not pending")

	// Export errors
	ErrNilStream     = fmt.Errorf("destination stream unavailable")
	ErrShortCopy     = fmt.Errorf("copied fewer bytes than cached")
	ErrInvalidTarget = fmt.Errorf("invalid write target")
	ErrExportPanic   = fmt.Errorf("export panicked")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
