package ncm

import (
	"bytes"
	"crypto/aes"
	"errors"
	"fmt"
)

// The AES keys below are fixed constants of the NCM format itself, not
// secrets: every NetEase client ships them. Decrypting with them is a
// format-integrity step, not a security boundary.
var (
	rc4WrapKey  = []byte("hzHRAmso5kInbaxW")
	metaWrapKey = []byte(`#14ljk_!\]&0U<'(`)
)

var keyPlainPrefix = []byte("neteasecloudmusic")

// unwrapKey AES-decrypts the wrapped key segment and strips the literal
// plaintext prefix, yielding the raw RC4 key material.
func unwrapKey(wrapped []byte) ([]byte, error) {
	plain, err := decryptAESECB(rc4WrapKey, wrapped)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptRC4Key, err)
	}
	if !bytes.HasPrefix(plain, keyPlainPrefix) {
		return nil, fmt.Errorf("%w: plaintext prefix missing", ErrDecryptRC4Key)
	}
	material := plain[len(keyPlainPrefix):]
	if len(material) == 0 {
		return nil, fmt.Errorf("%w: empty key material", ErrDecryptRC4Key)
	}
	return material, nil
}

// decryptAESECB decrypts data with AES-128 in ECB mode and removes
// PKCS#7 padding. crypto/cipher has no ECB mode, so the block loop
// lives here.
func decryptAESECB(key, data []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	bs := block.BlockSize()
	if len(data) == 0 || len(data)%bs != 0 {
		return nil, fmt.Errorf("ciphertext length %d is not a positive multiple of the block size", len(data))
	}

	plain := make([]byte, len(data))
	for i := 0; i < len(data); i += bs {
		block.Decrypt(plain[i:i+bs], data[i:i+bs])
	}
	return pkcs7Unpad(plain, bs)
}

// pkcs7Unpad validates and strips PKCS#7 padding.
func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("empty plaintext")
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, errors.New("invalid PKCS#7 padding")
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, errors.New("invalid PKCS#7 padding")
		}
	}
	return data[:len(data)-n], nil
}
