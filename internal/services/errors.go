package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anonto42/follow-graph/backend/internal/repositories"
)

var (
	ErrInvalidRequest   = errors.New("invalid request")
	ErrSelfFollow       = fmt.Errorf("%w: cannot follow yourself", ErrInvalidRequest)
	ErrAlreadyFollowing = repositories.ErrAlreadyFollowing
	ErrUserNotFound     = repositories.ErrUserNotFound
)

var errorStatus = []struct {
	err    error
	status int
}{
	{ErrInvalidRequest, http.StatusBadRequest},
	{ErrAlreadyFollowing, http.StatusBadRequest},
	{ErrUserNotFound, http.StatusNotFound},
}

// StatusFor maps a service error to its HTTP status; unknown errors are 500
func StatusFor(err error) int {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

func missing(fields ...string) error {
	return fmt.Errorf("%w: missing %s", ErrInvalidRequest, strings.Join(fields, " or "))
}
