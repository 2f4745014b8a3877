package ncm

import (
	"bytes"
	"encoding/base64"
	"fmt"
)

var (
	metaSegmentPrefix = []byte("163 key(Don't modify):")
	metaPlainPrefix   = []byte("music:")
)

// unwrapMetadata peels the metadata segment down to its JSON document:
// literal prefix, base64, AES, second literal prefix. Files in the wild
// carry padded base64 but the format has also been decoded without
// padding, so both forms are accepted.
func unwrapMetadata(segment []byte) ([]byte, error) {
	if !bytes.HasPrefix(segment, metaSegmentPrefix) {
		return nil, fmt.Errorf("%w: segment prefix missing", ErrDecryptMetadata)
	}

	encoded := string(segment[len(metaSegmentPrefix):])
	wrapped, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		wrapped, err = base64.RawStdEncoding.DecodeString(encoded)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: base64 decode: %v", ErrDecryptMetadata, err)
	}

	plain, err := decryptAESECB(metaWrapKey, wrapped)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptMetadata, err)
	}
	if !bytes.HasPrefix(plain, metaPlainPrefix) {
		return nil, fmt.Errorf("%w: plaintext prefix missing", ErrDecryptMetadata)
	}
	return plain[len(metaPlainPrefix):], nil
}
