package ncm

import (
	"bytes"
	"crypto/aes"
	"encoding/base64"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scenarioJSON is a minimal but complete metadata document.
const scenarioJSON = `{"musicName":"T","musicId":1,"artist":[["A",2]],"album":"Al",` +
	`"albumId":3,"albumPicDocId":4,"albumPic":"http://x/y.jpg","bitrate":320000,` +
	`"duration":1000,"alias":[],"transNames":[],"format":"mp3"}`

func encryptAESECB(t *testing.T, key, plain []byte) []byte {
	t.Helper()
	block, err := aes.NewCipher(key)
	require.NoError(t, err)

	bs := block.BlockSize()
	pad := bs - len(plain)%bs
	padded := append(append([]byte(nil), plain...), bytes.Repeat([]byte{byte(pad)}, pad)...)

	out := make([]byte, len(padded))
	for i := 0; i < len(padded); i += bs {
		block.Encrypt(out[i:i+bs], padded[i:i+bs])
	}
	return out
}

// buildContainer assembles a synthetic .ncm container around the given
// RC4 key material, metadata JSON and ciphered audio payload.
func buildContainer(t *testing.T, keyMaterial []byte, metaJSON string, audio []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	buf.Write(magic)
	buf.Write([]byte{0x01, 0x70})

	keyPlain := append(append([]byte(nil), keyPlainPrefix...), keyMaterial...)
	buf.Write(segmentBytes(encryptAESECB(t, rc4WrapKey, keyPlain), keySalt))

	metaPlain := append(append([]byte(nil), metaPlainPrefix...), metaJSON...)
	wrapped := encryptAESECB(t, metaWrapKey, metaPlain)
	metaSeg := append(append([]byte(nil), metaSegmentPrefix...),
		base64.StdEncoding.EncodeToString(wrapped)...)
	buf.Write(segmentBytes(metaSeg, metaSalt))

	buf.Write(make([]byte, reservedSize))
	buf.Write(segmentBytes(nil, imageSalt))
	buf.Write(audio)
	return buf.Bytes()
}

func TestOpenScenario(t *testing.T) {
	keyMaterial := []byte("k")
	payload := []byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x11, 0x22, 0x33}
	container := buildContainer(t, keyMaterial, scenarioJSON, payload)

	f, err := OpenBytes(container)
	require.NoError(t, err)

	md, err := f.ParsedMetadata()
	require.NoError(t, err)
	assert.Equal(t, "T", md.MusicName)
	assert.Equal(t, "1", md.MusicID)
	assert.Equal(t, "mp3", md.Format)
	assert.Equal(t, []Artist{{Name: "A", ID: 2}}, md.Artists)
	assert.Equal(t, uint64(3), md.AlbumID)

	music, err := f.Music()
	require.NoError(t, err)
	require.Len(t, music, len(payload))

	ks := deriveKeystream(keyMaterial)
	for i, b := range payload {
		assert.Equalf(t, b^ks[i%sboxSize], music[i], "audio byte %d", i)
	}

	assert.Empty(t, f.Image())
}

func TestOpenShapesAgree(t *testing.T) {
	container := buildContainer(t, []byte("shared key"), scenarioJSON, bytes.Repeat([]byte{0xa5}, 700))

	fromBytes, err := OpenBytes(append([]byte(nil), container...))
	require.NoError(t, err)
	fromReader, err := Open(bytes.NewReader(container))
	require.NoError(t, err)

	for _, f := range []*File{fromBytes, fromReader} {
		_, err := f.Music()
		require.NoError(t, err)
		_, err = f.Metadata()
		require.NoError(t, err)
	}

	assert.Equal(t, fromBytes.RawMusic(), fromReader.RawMusic())
	assert.Equal(t, fromBytes.RawMetadata(), fromReader.RawMetadata())
	assert.Equal(t, fromBytes.Image(), fromReader.Image())
}

func TestDecryptIdempotent(t *testing.T) {
	container := buildContainer(t, []byte("idempotence"), scenarioJSON, []byte("audio payload bytes"))

	f, err := OpenBytes(container)
	require.NoError(t, err)

	first, err := f.Music()
	require.NoError(t, err)
	firstCopy := append([]byte(nil), first...)

	second, err := f.Music()
	require.NoError(t, err)
	assert.Equal(t, firstCopy, second, "second Music call must return the cached plaintext")

	meta1, err := f.Metadata()
	require.NoError(t, err)
	meta1Copy := append([]byte(nil), meta1...)

	meta2, err := f.Metadata()
	require.NoError(t, err)
	assert.Equal(t, meta1Copy, meta2, "second Metadata call must return the cached plaintext")
	assert.Equal(t, []byte(scenarioJSON), meta2)
}

func TestOpenInvalidHeader(t *testing.T) {
	container := buildContainer(t, []byte("k"), scenarioJSON, nil)
	copy(container, "NOTANNCM")

	for shape, open := range openers() {
		t.Run(shape, func(t *testing.T) {
			_, err := open(container)
			assert.ErrorIs(t, err, ErrInvalidHeader)
		})
	}
}

func TestOpenIgnoresHeaderSuffix(t *testing.T) {
	// Only the 8-byte magic is validated; the 2-byte version/flag
	// suffix is reserved and may hold anything.
	container := buildContainer(t, []byte("k"), scenarioJSON, nil)
	container[8], container[9] = 0xff, 0xff

	_, err := OpenBytes(container)
	assert.NoError(t, err)
}

func TestOpenTruncated(t *testing.T) {
	audio := []byte("final audio run")
	container := buildContainer(t, []byte("k"), scenarioJSON, audio)
	audioStart := len(container) - len(audio)

	for shape, open := range openers() {
		t.Run(shape, func(t *testing.T) {
			// Every cut before the audio region must fail cleanly.
			for cut := 0; cut < audioStart; cut++ {
				_, err := open(container[:cut])
				if !errors.Is(err, ErrEndOfFile) {
					t.Fatalf("cut at %d: error = %v, want ErrEndOfFile", cut, err)
				}
			}

			// A cut at the audio boundary is a valid container with
			// an empty audio payload.
			f, err := open(container[:audioStart])
			require.NoError(t, err)
			music, err := f.Music()
			require.NoError(t, err)
			assert.Empty(t, music)
		})
	}
}

func TestMetadataFailureLeavesBuffersUntouched(t *testing.T) {
	badJSON := `{"musicId":1,"artist":[["A",2]],"album":"Al","albumId":3,` +
		`"albumPicDocId":4,"albumPic":"http://x/y.jpg","bitrate":320000,` +
		`"duration":1000,"format":"mp3"}`
	audio := []byte("still ciphered")
	container := buildContainer(t, []byte("k"), badJSON, audio)

	f, err := OpenBytes(container)
	require.NoError(t, err)
	rawMusic := append([]byte(nil), f.RawMusic()...)
	image := append([]byte(nil), f.Image()...)

	_, err = f.ParsedMetadata()
	assert.ErrorIs(t, err, ErrParseMetadata)
	assert.Contains(t, err.Error(), "musicName")

	assert.Equal(t, rawMusic, f.RawMusic(), "audio buffer must stay ciphered")
	assert.Equal(t, image, f.Image())
}

func TestMusicBadKeySegment(t *testing.T) {
	// A key segment that decrypts under the wrong wrap key fails the
	// prefix check, and the failure is stable across calls.
	keyPlain := append(append([]byte(nil), keyPlainPrefix...), 'k')
	wrongWrapped := encryptAESECB(t, metaWrapKey, keyPlain)

	var buf bytes.Buffer
	buf.Write(magic)
	buf.Write([]byte{0x01, 0x70})
	buf.Write(segmentBytes(wrongWrapped, keySalt))
	buf.Write(segmentBytes([]byte("meta"), metaSalt))
	buf.Write(make([]byte, reservedSize))
	buf.Write(segmentBytes(nil, imageSalt))
	buf.Write([]byte("audio"))

	f, err := OpenBytes(buf.Bytes())
	require.NoError(t, err)

	_, err = f.Music()
	assert.ErrorIs(t, err, ErrDecryptRC4Key)
	_, err = f.Music()
	assert.ErrorIs(t, err, ErrDecryptRC4Key, "retry must fail the same way")
	assert.Equal(t, []byte("audio"), f.RawMusic(), "failed decrypt must not touch the audio buffer")
}

func openers() map[string]func([]byte) (*File, error) {
	return map[string]func([]byte) (*File, error){
		"bytes":  OpenBytes,
		"reader": func(b []byte) (*File, error) { return Open(bytes.NewReader(b)) },
	}
}

func ExampleOpenBytes() {
	// Containers are normally read from disk; here a synthetic one is
	// assumed to be in data.
	var data []byte
	f, err := OpenBytes(data)
	if err != nil {
		fmt.Println("not an NCM container")
		return
	}
	md, _ := f.ParsedMetadata()
	fmt.Println(md.MusicName)
}
