package pricing

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrInvalidRange is returned when a price range has a negative lower
	// bound or an upper bound below its lower bound.
	ErrInvalidRange = errors.New("invalid price range")
	// ErrInvalidPercentage is returned when a percentage is outside the
	// domain allowed for the operation.
	ErrInvalidPercentage = errors.New("invalid percentage")
	// ErrCatalogUnavailable wraps data-access failures from the product catalog.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	// ErrBundleStoreUnavailable wraps data-access failures from the bundle store.
	ErrBundleStoreUnavailable = errors.New("bundle store unavailable")
)

// PartialApplyFailure reports a batch run that committed a prefix of its
// ranges (or bundles) before failing. Committed writes are not rolled back.
type PartialApplyFailure struct {
	Operation Operation
	RunID     uuid.UUID

	// Range runs.
	CompletedRanges int
	FailedRange     int

	// Bundle runs.
	CommittedBundleIDs []uint
	FailedBundleID     uint

	UpdatedCount int
	Cause        error
}

func (e *PartialApplyFailure) Error() string {
	if e.Operation == OperationBundleMarkup {
		return fmt.Sprintf("%s stopped at bundle %d after %d bundles updated: %v",
			e.Operation, e.FailedBundleID, len(e.CommittedBundleIDs), e.Cause)
	}
	return fmt.Sprintf("%s stopped at range %d after %d ranges applied (%d rows): %v",
		e.Operation, e.FailedRange, e.CompletedRanges, e.UpdatedCount, e.Cause)
}

func (e *PartialApplyFailure) Unwrap() error {
	return e.Cause
}

func catalogError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrCatalogUnavailable, op, err)
}

func bundleStoreError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrBundleStoreUnavailable, op, err)
}
