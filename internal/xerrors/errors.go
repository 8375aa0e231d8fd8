// Package xerrors declares the sentinel error taxonomy shared across the
// codec, store, and node engine.
package xerrors

import "errors"

var (
	// ErrNotDecodable is returned when decode is attempted with fewer than
	// k present shards.
	ErrNotDecodable = errors.New("object is not decodable: insufficient shards present")

	// ErrInvalidUTF8 names the case where reconstructed bytes are not
	// valid UTF-8. objectentry.Entry.Decode reports that case as an absent
	// result and does not return this error.
	ErrInvalidUTF8 = errors.New("reconstructed content is not valid utf-8")

	// ErrUnknownName names the case where an operation targets a name the
	// local node has no entry for. The store and node engine treat that
	// case as an absent result or a no-op and do not return this error.
	ErrUnknownName = errors.New("unknown object name")

	// ErrEncodeFailure is returned when the codec cannot be constructed
	// for the given input, e.g. an empty upload yielding zero data shards.
	ErrEncodeFailure = errors.New("erasure encode failed")

	// ErrEmptyUpload is a specialization of ErrEncodeFailure surfaced by
	// Node.Upload when the caller passes zero-length content.
	ErrEmptyUpload = EncodeFailure("cannot upload empty content")
)

// EncodeFailure wraps a lower-level codec error as ErrEncodeFailure so
// callers can match on it with errors.Is while retaining the original
// detail.
func EncodeFailure(reason string) error {
	return errors.Join(ErrEncodeFailure, errors.New(reason))
}
