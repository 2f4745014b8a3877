package ncm

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func segmentBytes(data []byte, salt byte) []byte {
	buf := make([]byte, 4+len(data))
	binary.LittleEndian.PutUint32(buf, uint32(len(data)))
	for i, b := range data {
		buf[4+i] = b ^ salt
	}
	return buf
}

// sources builds both byte-source shapes over the same input so every
// test runs against each.
func sources(input []byte) map[string]func() byteSource {
	return map[string]func() byteSource{
		"memory": func() byteSource { return &memSource{data: input} },
		"stream": func() byteSource { return &streamSource{r: bytes.NewReader(input)} },
	}
}

func TestReadSegment(t *testing.T) {
	tests := []struct {
		name    string
		input   []byte
		salt    byte
		want    []byte
		wantErr error
	}{
		{
			name:  "salted data round-trips",
			input: segmentBytes([]byte("hello"), 0x64),
			salt:  0x64,
			want:  []byte("hello"),
		},
		{
			name:  "identity salt leaves bytes unchanged",
			input: segmentBytes([]byte{0x01, 0x02, 0x03}, 0x00),
			salt:  0x00,
			want:  []byte{0x01, 0x02, 0x03},
		},
		{
			name:  "zero-length segment",
			input: segmentBytes(nil, 0x63),
			salt:  0x63,
			want:  []byte{},
		},
		{
			name:    "truncated length prefix",
			input:   []byte{0x05, 0x00},
			salt:    0x64,
			wantErr: ErrEndOfFile,
		},
		{
			name:    "empty source",
			input:   nil,
			salt:    0x64,
			wantErr: ErrEndOfFile,
		},
		{
			name:    "truncated data",
			input:   segmentBytes([]byte("hello"), 0x64)[:7],
			salt:    0x64,
			wantErr: ErrEndOfFile,
		},
	}

	for _, tt := range tests {
		for shape, newSource := range sources(tt.input) {
			t.Run(tt.name+"/"+shape, func(t *testing.T) {
				got, err := readSegment(newSource(), tt.salt)

				if tt.wantErr != nil {
					if !errors.Is(err, tt.wantErr) {
						t.Fatalf("readSegment() error = %v, want %v", err, tt.wantErr)
					}
					return
				}
				if err != nil {
					t.Fatalf("readSegment() unexpected error: %v", err)
				}
				if !bytes.Equal(got, tt.want) {
					t.Errorf("readSegment() = % x, want % x", got, tt.want)
				}
			})
		}
	}
}

func TestSourceShapesAgree(t *testing.T) {
	input := segmentBytes([]byte("payload bytes"), 0x42)
	input = append(input, []byte("trailing audio")...)

	mem := &memSource{data: input}
	stream := &streamSource{r: bytes.NewReader(input)}

	memSeg, err := readSegment(mem, 0x42)
	if err != nil {
		t.Fatalf("memory segment: %v", err)
	}
	streamSeg, err := readSegment(stream, 0x42)
	if err != nil {
		t.Fatalf("stream segment: %v", err)
	}
	if !bytes.Equal(memSeg, streamSeg) {
		t.Errorf("segment mismatch: memory % x, stream % x", memSeg, streamSeg)
	}

	memRest, err := mem.readRemainder()
	if err != nil {
		t.Fatalf("memory remainder: %v", err)
	}
	streamRest, err := stream.readRemainder()
	if err != nil {
		t.Fatalf("stream remainder: %v", err)
	}
	if !bytes.Equal(memRest, streamRest) {
		t.Errorf("remainder mismatch: memory %q, stream %q", memRest, streamRest)
	}
}
