package secret

import "errors"

var (
	// ErrMissingEnv indicates a ${VAR} reference to an unset variable.
	ErrMissingEnv = errors.New("secret: missing environment variable")

	// ErrProviderNotRegistered indicates a reference names an unknown provider.
	ErrProviderNotRegistered = errors.New("secret: provider not registered")

	// ErrProviderExists indicates a duplicate factory registration.
	ErrProviderExists = errors.New("secret: provider already registered")

	// ErrInvalidProvider indicates an empty provider name or nil factory.
	ErrInvalidProvider = errors.New("secret: invalid provider")

	// ErrEmptySecret indicates a strict resolver got an empty value.
	ErrEmptySecret = errors.New("secret: empty value")

	// ErrNotFound indicates a provider has no value for a reference.
	ErrNotFound = errors.New("secret: not found")
)
