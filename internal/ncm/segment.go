package ncm

import (
	"encoding/binary"
	"fmt"
	"io"
)

// byteSource abstracts the two shapes an NCM container arrives in: a
// fully buffered byte slice and a sequential stream. Both shapes must
// yield byte-identical segments for the same input.
type byteSource interface {
	// readFull fills buf completely or reports a short read.
	readFull(buf []byte) error
	// readRemainder returns every byte left in the source.
	readRemainder() ([]byte, error)
}

// memSource walks an in-memory byte slice with a cursor.
type memSource struct {
	data []byte
	off  int
}

// streamSource wraps a blocking sequential reader such as *os.File.
type streamSource struct {
	r io.Reader
}

var _ byteSource = (*memSource)(nil)
var _ byteSource = (*streamSource)(nil)

func (s *memSource) readFull(buf []byte) error {
	if s.off+len(buf) > len(s.data) {
		s.off = len(s.data)
		return io.ErrUnexpectedEOF
	}
	copy(buf, s.data[s.off:])
	s.off += len(buf)
	return nil
}

func (s *memSource) readRemainder() ([]byte, error) {
	rest := make([]byte, len(s.data)-s.off)
	copy(rest, s.data[s.off:])
	s.off = len(s.data)
	return rest, nil
}

func (s *streamSource) readFull(buf []byte) error {
	_, err := io.ReadFull(s.r, buf)
	return err
}

func (s *streamSource) readRemainder() ([]byte, error) {
	return io.ReadAll(s.r)
}

// readSegment reads one length-prefixed segment: a 4-byte little-endian
// unsigned length L followed by exactly L data bytes, each XORed with a
// single-byte salt. A salt of 0x00 is the identity transform.
func readSegment(src byteSource, salt byte) ([]byte, error) {
	var lenBuf [4]byte
	if err := src.readFull(lenBuf[:]); err != nil {
		return nil, fmt.Errorf("%w: segment length", ErrEndOfFile)
	}
	segLen := binary.LittleEndian.Uint32(lenBuf[:])

	seg := make([]byte, segLen)
	if err := src.readFull(seg); err != nil {
		return nil, fmt.Errorf("%w: segment data (%d bytes declared)", ErrEndOfFile, segLen)
	}
	if salt != 0 {
		for i := range seg {
			seg[i] ^= salt
		}
	}
	return seg, nil
}
