package token

import "errors"

var (
	ErrTokenNotPresent = errors.New("hardware token not present")
	ErrTokenRejected   = errors.New("hardware token rejected the request")
	ErrTokenFailure    = errors.New("hardware token failure")
)
