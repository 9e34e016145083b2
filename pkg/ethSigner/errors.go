package ethSigner

import (
	"errors"
	"fmt"
)

// Error kinds returned by every signing operation. Use errors.Is to test for them.
var (
	// ErrInvalidArgument covers malformed or wrong-length input: bad hash length,
	// malformed JSON, inconsistent or unparsable transaction fields.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidKey is returned when the private key cannot be decoded or is not
	// a valid secp256k1 scalar.
	ErrInvalidKey = errors.New("invalid private key")

	// ErrEncoding is returned when EIP-712 canonicalization or transaction
	// encoding cannot proceed.
	ErrEncoding = errors.New("encoding error")

	// ErrSignFailure is returned when the underlying ECDSA operation fails.
	ErrSignFailure = errors.New("sign failure")
)

// SignError is the concrete error type returned by the facade.
type SignError struct {
	// Op is the facade operation that failed, e.g. "sign_hash".
	Op string
	// Kind is one of the Err* sentinels above.
	Kind error
	// Err describes which precondition failed.
	Err error
}

func (e *SignError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *SignError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newSignError(op string, kind error, err error) *SignError {
	return &SignError{Op: op, Kind: kind, Err: err}
}

// KindOf returns the sentinel matching err, or nil if err did not come from this package.
func KindOf(err error) error {
	for _, kind := range []error{ErrInvalidArgument, ErrInvalidKey, ErrEncoding, ErrSignFailure} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
