package output

import (
	"bytes"
	"fmt"

	id3v2 "github.com/bogem/id3v2/v2"

	"github.com/shuangsilab/ncm-dumper/internal/ncm"
)

// TagMP3 prepends an ID3v2 tag built from the metadata record to the
// decrypted audio, attaching the cover image when present. NCM
// containers carry no tags of their own, so without this step the
// recovered mp3 has no title, artist or artwork. Non-mp3 formats keep
// their native tag blocks; callers skip tagging for those.
func TagMP3(audio []byte, md *ncm.Metadata, image []byte) ([]byte, error) {
	tag := id3v2.NewEmptyTag()
	tag.SetTitle(md.MusicName)
	tag.SetAlbum(md.Album)
	if len(md.Artists) > 0 {
		tag.SetArtist(md.Artists[0].Name)
	}
	if len(image) > 0 {
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    imageMIME(image),
			PictureType: id3v2.PTFrontCover,
			Picture:     image,
		})
	}

	var buf bytes.Buffer
	if _, err := tag.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("writing ID3 tag: %w", err)
	}
	buf.Write(audio)
	return buf.Bytes(), nil
}

func imageMIME(image []byte) string {
	if bytes.HasPrefix(image, []byte("\x89PNG")) {
		return "image/png"
	}
	return "image/jpeg"
}
