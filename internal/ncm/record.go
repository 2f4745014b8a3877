package ncm

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Artist is one (name, id) pair from the metadata artist list.
type Artist struct {
	Name string
	ID   uint64
}

// Metadata is the typed record parsed from a decrypted metadata
// document. It follows the permissive schema NetEase clients emit
// today: ids may arrive as JSON numbers or numeric strings, and the
// track id is kept as a string so ids too large or non-numeric for
// uint64 survive intact.
type Metadata struct {
	MusicName     string
	MusicID       string
	Artists       []Artist
	Album         string
	AlbumID       uint64
	AlbumPicDocID uint64
	AlbumPic      string
	Bitrate       uint64
	MP3DocID      string
	Duration      uint64
	MVID          uint64
	Alias         []string
	TransNames    []string
	Format        string
	Fee           uint64

	// Flag is nil when neither the top-level "flag" field nor the
	// nested privilege object carries one.
	Flag *uint64
}

// rawMetadata mirrors the wire shape. Pointer and RawMessage fields
// distinguish "absent" from a zero value; dual-representation fields stay
// raw until coerced.
type rawMetadata struct {
	MusicName     *string             `json:"musicName"`
	MusicID       json.RawMessage     `json:"musicId"`
	Artist        [][]json.RawMessage `json:"artist"`
	Album         *string             `json:"album"`
	AlbumID       json.RawMessage     `json:"albumId"`
	AlbumPicDocID json.RawMessage     `json:"albumPicDocId"`
	AlbumPic      *string             `json:"albumPic"`
	Bitrate       *uint64             `json:"bitrate"`
	MP3DocID      string              `json:"mp3DocId"`
	Duration      *uint64             `json:"duration"`
	MVID          json.RawMessage     `json:"mvId"`
	Alias         []string            `json:"alias"`
	TransNames    []string            `json:"transNames"`
	Format        *string             `json:"format"`
	Fee           json.RawMessage     `json:"fee"`
	Flag          json.RawMessage     `json:"flag"`
	Privilege     *struct {
		Flag json.RawMessage `json:"flag"`
	} `json:"privilege"`
}

// ParseMetadata parses a decrypted metadata JSON document into a
// Metadata record. Missing or mis-shaped required fields fail with
// ErrParseMetadata naming the field.
func ParseMetadata(doc []byte) (*Metadata, error) {
	var raw rawMetadata
	if err := json.Unmarshal(doc, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseMetadata, err)
	}

	md := &Metadata{
		MP3DocID:   raw.MP3DocID,
		Alias:      raw.Alias,
		TransNames: raw.TransNames,
	}
	if md.Alias == nil {
		md.Alias = []string{}
	}
	if md.TransNames == nil {
		md.TransNames = []string{}
	}

	var err error
	if md.MusicName, err = requiredString(raw.MusicName, "musicName"); err != nil {
		return nil, err
	}
	if md.MusicID, err = coerceString(raw.MusicID, "musicId"); err != nil {
		return nil, err
	}
	if md.Album, err = requiredString(raw.Album, "album"); err != nil {
		return nil, err
	}
	if md.AlbumID, err = coerceID(raw.AlbumID, "albumId"); err != nil {
		return nil, err
	}
	if md.AlbumPicDocID, err = coerceID(raw.AlbumPicDocID, "albumPicDocId"); err != nil {
		return nil, err
	}
	if md.AlbumPic, err = requiredString(raw.AlbumPic, "albumPic"); err != nil {
		return nil, err
	}
	if md.Format, err = requiredString(raw.Format, "format"); err != nil {
		return nil, err
	}
	if raw.Bitrate == nil {
		return nil, missingField("bitrate")
	}
	md.Bitrate = *raw.Bitrate
	if raw.Duration == nil {
		return nil, missingField("duration")
	}
	md.Duration = *raw.Duration

	if raw.Artist == nil {
		return nil, missingField("artist")
	}
	md.Artists = make([]Artist, 0, len(raw.Artist))
	for _, entry := range raw.Artist {
		if len(entry) < 2 {
			return nil, fmt.Errorf("%w: artist entry needs at least [name, id]", ErrParseMetadata)
		}
		var name string
		if err := json.Unmarshal(entry[0], &name); err != nil {
			return nil, fmt.Errorf("%w: artist name is not a string", ErrParseMetadata)
		}
		id, err := coerceID(entry[1], "artist id")
		if err != nil {
			return nil, err
		}
		md.Artists = append(md.Artists, Artist{Name: name, ID: id})
	}

	// Optional fields: absent is fine, present-but-mis-shaped is not.
	if raw.MVID != nil {
		if md.MVID, err = coerceID(raw.MVID, "mvId"); err != nil {
			return nil, err
		}
	}
	if raw.Fee != nil {
		if md.Fee, err = coerceID(raw.Fee, "fee"); err != nil {
			return nil, err
		}
	}

	// flag lives at the top level in newer documents and inside the
	// privilege object in older ones; with neither present it stays
	// unset.
	flagRaw := raw.Flag
	if flagRaw == nil && raw.Privilege != nil {
		flagRaw = raw.Privilege.Flag
	}
	if flagRaw != nil {
		flag, err := coerceID(flagRaw, "flag")
		if err != nil {
			return nil, err
		}
		md.Flag = &flag
	}

	return md, nil
}

func missingField(field string) error {
	return fmt.Errorf("%w: missing required field %q", ErrParseMetadata, field)
}

func requiredString(s *string, field string) (string, error) {
	if s == nil {
		return "", missingField(field)
	}
	return *s, nil
}

// coerceID accepts a JSON number or a numeric string and normalizes it
// to uint64.
func coerceID(raw json.RawMessage, field string) (uint64, error) {
	if raw == nil {
		return 0, missingField(field)
	}
	var n uint64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.ParseUint(s, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, fmt.Errorf("%w: field %q is neither a number nor a numeric string", ErrParseMetadata, field)
}

// coerceString accepts a JSON string or number and normalizes it to its
// string form. Used for the track id, which must survive values that do
// not fit uint64.
func coerceString(raw json.RawMessage, field string) (string, error) {
	if raw == nil {
		return "", missingField(field)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("%w: field %q is neither a string nor a number", ErrParseMetadata, field)
}
