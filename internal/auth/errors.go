package auth

import "errors"

var (
	ErrNotFound      = errors.New("auth: not found")
	ErrAlreadyExists = errors.New("auth: already exists")
	ErrInvalidInput  = errors.New("auth: invalid input")
	ErrUnauthorized  = errors.New("auth: unauthorized")

	// ErrSecretMissing indicates the process was started without a signing
	// secret. It is fatal: no session may be issued or verified without one.
	ErrSecretMissing = errors.New("auth: token secret is not configured")

	// ErrTokenExpired is returned when a token's signature checks out but its
	// embedded expiry has passed. Callers use it to tell "try a refresh" apart
	// from "force re-login".
	ErrTokenExpired = errors.New("auth: token expired")

	// ErrInvalidToken covers every other verification failure: bad signature,
	// unparseable structure, wrong token class. The causes are deliberately
	// not distinguishable to callers.
	ErrInvalidToken = errors.New("auth: invalid token")
)
