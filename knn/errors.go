package knn

import (
	"errors"
	"fmt"

	"github.com/hupe1980/knnlive/model"
)

var (
	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrNilDistanceFunc is returned when no distance function is provided.
	ErrNilDistanceFunc = errors.New("distance function must not be nil")
)

// DuplicateIDError indicates an insert of an identifier that is already part
// of the population, or repeated within one batch.
type DuplicateIDError struct {
	ID model.ObjectID
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate object id: %d", e.ID)
}

// UnknownIDError indicates an operation on an identifier that is not part of
// the population.
type UnknownIDError struct {
	ID model.ObjectID
}

func (e *UnknownIDError) Error() string {
	return fmt.Sprintf("unknown object id: %d", e.ID)
}

// DimensionMismatchError indicates a vector whose dimensionality differs
// from the store's.
type DimensionMismatchError struct {
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// InvalidDistanceError indicates an oracle fault: the distance function
// produced a NaN or negative value for a pair of objects. The mutation or
// query that observed it is aborted without touching store state.
type InvalidDistanceError struct {
	A, B  model.ObjectID
	Value float64
}

func (e *InvalidDistanceError) Error() string {
	return fmt.Sprintf("invalid distance %v between %d and %d", e.Value, e.A, e.B)
}

// InvariantViolationError describes a malformed neighbor list or an
// inconsistent reverse index. It indicates an implementation bug; stores
// configured with invariant checks panic with this value after a mutation
// that broke an invariant.
type InvariantViolationError struct {
	Detail string
}

func (e *InvariantViolationError) Error() string {
	return "neighbor invariant violated: " + e.Detail
}
