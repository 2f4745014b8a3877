package batch

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// ReadFileList reads a newline-separated list of container paths.
// Lists produced by Windows tools often arrive GBK-encoded, so content
// that is not valid UTF-8 is decoded as GBK before splitting. Blank
// lines and surrounding whitespace are dropped.
func ReadFileList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("file list: %w", err)
	}

	if !utf8.Valid(data) {
		decoded, _, err := transform.Bytes(simplifiedchinese.GBK.NewDecoder(), data)
		if err != nil {
			return nil, fmt.Errorf("file list %s: neither UTF-8 nor GBK: %w", path, err)
		}
		data = decoded
	}

	var paths []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			paths = append(paths, line)
		}
	}
	return paths, nil
}
