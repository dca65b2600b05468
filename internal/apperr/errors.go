// Package apperr defines the sentinel errors shared across the vault.
package apperr

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrAlreadyExists      = errors.New("already exists")
	ErrPolicyViolation    = errors.New("policy violation")
	ErrCryptoFailure      = errors.New("crypto failure")
	ErrUnsupportedNetwork = errors.New("unsupported network")
)
