package udp

import "errors"

var (
	// ErrUnknownEncoding is returned when the configured charset is not recognised.
	ErrUnknownEncoding = errors.New("udp: unknown text encoding")

	// ErrEncode is returned when text cannot be represented in the configured charset.
	ErrEncode = errors.New("udp: text cannot be encoded")

	// ErrPayloadTooLarge is returned when the encoded text does not fit one datagram.
	ErrPayloadTooLarge = errors.New("udp: payload exceeds datagram size")

	// ErrSendFailed is returned when the datagram cannot be sent.
	ErrSendFailed = errors.New("udp: send failed")
)
