package model

import (
	"errors"
	"fmt"
)

var (
	// ErrUnrecognizedToken means the claims match neither supported shape
	ErrUnrecognizedToken = errors.New("token is not an EESZT token")

	// ErrNoResultTable means the lookup page has no result table
	ErrNoResultTable = errors.New("lookup page has no result table")

	// ErrMissingCell means the result table is shorter than expected
	ErrMissingCell = errors.New("lookup result table is missing cells")
)

// ProofResolutionError wraps any failure while resolving a card token
type ProofResolutionError struct {
	URL string
	Err error
}

func (e *ProofResolutionError) Error() string {
	return fmt.Sprintf("resolve proof from %s: %v", e.URL, e.Err)
}

func (e *ProofResolutionError) Unwrap() error {
	return e.Err
}
