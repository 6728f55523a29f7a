package imagevault

import (
	"errors"
	"fmt"

	"github.com/hupe1980/imagevault/recordstore"
)

var (
	// ErrNotFound is returned when no record matches a lookup.
	ErrNotFound = errors.New("not found")

	// ErrMissingImageHash is returned when a record is saved without its
	// content hash. The hash is the store's merge key and cannot be defaulted.
	ErrMissingImageHash = errors.New("image hash must not be empty")
)

// ErrStorageUnavailable indicates that the backing blob store failed a
// write. Reads degrade to an empty view instead of raising this.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrStorageUnavailable struct {
	Op    string
	cause error
}

func (e *ErrStorageUnavailable) Error() string {
	return fmt.Sprintf("storage unavailable during %s: %v", e.Op, e.cause)
}

func (e *ErrStorageUnavailable) Unwrap() error { return e.cause }

func translateError(op string, err error) error {
	if err == nil {
		return nil
	}

	// Not found unification.
	if errors.Is(err, recordstore.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	return &ErrStorageUnavailable{Op: op, cause: err}
}
