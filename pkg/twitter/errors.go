package twitter

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound indicates the remote lookup has no tweet for the given ID
	ErrNotFound = errors.New("tweet not found")

	// ErrMalformed indicates the remote lookup returned an empty or unparsable body
	ErrMalformed = errors.New("malformed tweet response")
)

// StatusError is returned for non-success HTTP statuses other than not-found
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status: %s", e.Status)
}

// IsNotFound reports whether err means the tweet does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
