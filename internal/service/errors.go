// Package service holds the business rules of the API: principal
// resolution, the ownership and assignment checks, input validation and the
// conversion of stored rows into transfer shapes.
package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/planit/internal/repository"
)

// Error taxonomy surfaced to callers.  Handlers map each one to an HTTP
// status.
var (
	ErrNotFound           = errors.New("not found")
	ErrAccessDenied       = errors.New("access denied")
	ErrInvalidInput       = errors.New("invalid input")
	ErrDeletionFailed     = errors.New("deletion failed")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrConflict is shared with the repository so its wrapped detail
	// ("username already exists") reaches the caller unchanged.
	ErrConflict = repository.ErrConflict
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// translate maps repository sentinels onto the service taxonomy.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrForbidden):
		return ErrAccessDenied
	default:
		return err
	}
}
