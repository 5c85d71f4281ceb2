package auth

import (
	"errors"
	"fmt"

	"github.com/samber/oops"
)

// Error codes carried by the oops errors returned from this package.
const (
	CodeDuplicateUser      = "AUTH_DUPLICATE_USER"
	CodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	CodeInvalidUsername    = "AUTH_INVALID_USERNAME"
	CodeStoreFailed        = "AUTH_STORE_FAILED"
	CodeHashFailed         = "AUTH_HASH_FAILED"
	CodeCanceled           = "AUTH_CANCELED"
)

var (
	// ErrDuplicateUser is returned by Register when the username already exists.
	ErrDuplicateUser = errors.New("user already exists")
	// ErrInvalidCredentials covers both an unknown username and a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrInvalidUsername is returned by Register for a blank username.
	ErrInvalidUsername = errors.New("username must not be empty")
	// ErrStore wraps failures of the underlying user store.
	ErrStore = errors.New("credential store failure")
)

func invalidCredentials() error {
	return oops.Code(CodeInvalidCredentials).Wrap(ErrInvalidCredentials)
}

func storeError(operation string, err error) error {
	return oops.Code(CodeStoreFailed).
		With("operation", operation).
		Wrap(fmt.Errorf("%w: %w", ErrStore, err))
}
