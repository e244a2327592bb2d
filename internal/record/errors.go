package record

import "errors"

// Sentinel errors returned by the serializer. Callers should use [errors.Is]
// to match against these values.
var (
	// ErrSerializationFailed is returned when a record cannot be encoded.
	ErrSerializationFailed = errors.New("record: serialization failed")

	// ErrInvalidProtobuf is returned when the input bytes are not a valid
	// encoding of a vault record.
	ErrInvalidProtobuf = errors.New("record: invalid protobuf payload")

	// ErrRecordTooLarge is returned before any field is materialised when
	// the input exceeds the serializer's size limit.
	ErrRecordTooLarge = errors.New("record: payload exceeds size limit")
)
