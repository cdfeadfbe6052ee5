package knnlive

import (
	"errors"
	"fmt"

	"github.com/hupe1980/knnlive/knn"
)

var (
	// ErrNotFound is returned when an identifier is not part of the
	// population. The underlying store error can be accessed via errors.As.
	ErrNotFound = errors.New("object not found")

	// ErrInconsistent is returned when a mutation succeeded on the reference
	// store but failed on the reachability store. The monitor must be
	// discarded: the two neighbor views no longer describe the same
	// population and any further mutation would trip the pairing protocol.
	ErrInconsistent = errors.New("monitor stores diverged")
)

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var unknown *knn.UnknownIDError
	if errors.As(err, &unknown) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}
