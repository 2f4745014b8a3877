// Package ncm parses and decrypts NetEase Cloud Music .ncm containers.
//
// An NCM container wraps three payloads behind a fixed magic header and
// length-prefixed segments: an AES-wrapped RC4 key, obfuscated JSON
// metadata and a keystream-ciphered audio stream, plus a plaintext
// cover image. The package recovers all of them:
//
//	f, err := ncm.Open(file)
//	if err != nil {
//		return err
//	}
//	audio, err := f.Music()
//	meta, err := f.ParsedMetadata()
//
// A File holds the whole container in memory and decrypts lazily; it is
// not safe for concurrent use, but distinct Files share no state and
// may be processed in parallel.
package ncm

import (
	"bytes"
	"fmt"
	"io"
)

// magic is the 8-byte signature every NCM container starts with. The
// two header bytes that follow it are a version/flag suffix which is
// deliberately not validated; observed files carry 0x01 0x70 but the
// suffix is treated as reserved.
var magic = []byte("CTENFDAM")

const (
	headerSize   = 10
	reservedSize = 9

	keySalt   = 0x64
	metaSalt  = 0x63
	imageSalt = 0x00
)

// File owns the four payload buffers of one parsed container. The key
// and metadata buffers hold ciphertext until the corresponding accessor
// is first called; the accessors decrypt in place and cache. This makes
// decryption idempotent, which is load-bearing: the audio cipher is a
// plain XOR, so re-applying it to already-decrypted bytes would
// re-cipher them.
type File struct {
	key      []byte
	metadata []byte
	image    []byte
	audio    []byte

	audioDecrypted    bool
	metadataDecrypted bool
}

// Open parses a container from a sequential stream, reading it fully
// into memory. Use OpenBytes when the container is already buffered.
func Open(r io.Reader) (*File, error) {
	return parse(&streamSource{r: r})
}

// OpenBytes parses a container from an in-memory byte slice. The slice
// is not retained; all payload buffers are owned by the returned File.
func OpenBytes(data []byte) (*File, error) {
	return parse(&memSource{data: data})
}

func parse(src byteSource) (*File, error) {
	header := make([]byte, headerSize)
	if err := src.readFull(header); err != nil {
		return nil, fmt.Errorf("%w: container header", ErrEndOfFile)
	}
	if !bytes.Equal(header[:len(magic)], magic) {
		return nil, fmt.Errorf("%w: got % x", ErrInvalidHeader, header[:len(magic)])
	}

	key, err := readSegment(src, keySalt)
	if err != nil {
		return nil, fmt.Errorf("key segment: %w", err)
	}
	metadata, err := readSegment(src, metaSalt)
	if err != nil {
		return nil, fmt.Errorf("metadata segment: %w", err)
	}

	var reserved [reservedSize]byte
	if err := src.readFull(reserved[:]); err != nil {
		return nil, fmt.Errorf("%w: reserved gap", ErrEndOfFile)
	}

	image, err := readSegment(src, imageSalt)
	if err != nil {
		return nil, fmt.Errorf("image segment: %w", err)
	}
	audio, err := src.readRemainder()
	if err != nil {
		return nil, fmt.Errorf("%w: audio payload", ErrEndOfFile)
	}

	return &File{
		key:      key,
		metadata: metadata,
		image:    image,
		audio:    audio,
	}, nil
}

// Music returns the decrypted audio stream, usually MP3 or FLAC data.
// The first call unwraps the RC4 key, derives the keystream and XORs
// the audio buffer in place; later calls return the cached plaintext.
// On failure the buffer is left untouched, so a retry sees the same
// ciphertext and fails the same way.
func (f *File) Music() ([]byte, error) {
	if f.audioDecrypted {
		return f.audio, nil
	}

	keyMaterial, err := unwrapKey(f.key)
	if err != nil {
		return nil, err
	}
	deriveKeystream(keyMaterial).apply(f.audio)
	f.audioDecrypted = true
	return f.audio, nil
}

// Metadata returns the decrypted metadata JSON document. The first call
// unwraps the metadata segment in place; later calls return the cached
// plaintext.
func (f *File) Metadata() ([]byte, error) {
	if f.metadataDecrypted {
		return f.metadata, nil
	}

	plain, err := unwrapMetadata(f.metadata)
	if err != nil {
		return nil, err
	}
	f.metadata = plain
	f.metadataDecrypted = true
	return f.metadata, nil
}

// ParsedMetadata decrypts the metadata document if necessary and parses
// it into a typed record.
func (f *File) ParsedMetadata() (*Metadata, error) {
	doc, err := f.Metadata()
	if err != nil {
		return nil, err
	}
	return ParseMetadata(doc)
}

// Image returns the cover image bytes, usually JPEG or PNG. The image
// segment is stored with an identity salt, so it needs no decryption.
func (f *File) Image() []byte {
	return f.image
}

// RawMusic returns the audio buffer in its current state: ciphertext
// before the first Music call, plaintext after.
func (f *File) RawMusic() []byte {
	return f.audio
}

// RawMetadata returns the metadata buffer in its current state:
// wrapped ciphertext before the first Metadata call, the raw JSON
// document after.
func (f *File) RawMetadata() []byte {
	return f.metadata
}
