package ncm

import "errors"

// Sentinel errors for every failure mode of the container pipeline.
// Callers match them with errors.Is; the wrapped detail describes the
// specific stage that failed.
var (
	// ErrEndOfFile indicates the container ended before a required
	// read (header, segment length, segment data or reserved gap)
	// could be fully satisfied.
	ErrEndOfFile = errors.New("ncm: unexpected end of file")

	// ErrInvalidHeader indicates the first 8 header bytes do not
	// match the "CTENFDAM" magic, so the input is not an NCM file.
	ErrInvalidHeader = errors.New("ncm: invalid header magic")

	// ErrDecryptRC4Key indicates the AES-wrapped RC4 key segment
	// could not be decrypted, unpadded or prefix-validated.
	ErrDecryptRC4Key = errors.New("ncm: decrypt RC4 key failed")

	// ErrDecryptMetadata indicates a failure at any stage of the
	// metadata unwrap: prefix check, base64 decode, AES decrypt or
	// post-decrypt prefix check.
	ErrDecryptMetadata = errors.New("ncm: decrypt metadata failed")

	// ErrParseMetadata indicates the decrypted metadata JSON is
	// malformed or a required field is missing or mis-shaped.
	ErrParseMetadata = errors.New("ncm: parse metadata failed")
)
