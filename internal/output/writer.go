// Package output constructs artifact paths and writes decrypted
// payloads to disk.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// TargetPath builds the artifact path for an input container: the
// input's extension is replaced with ext and, when dir is non-empty,
// the file is re-rooted there.
func TargetPath(inputPath, dir, ext string) string {
	base := filepath.Base(inputPath)
	base = strings.TrimSuffix(base, filepath.Ext(base)) + "." + ext
	if dir == "" {
		dir = filepath.Dir(inputPath)
	}
	return filepath.Join(dir, base)
}

// ImageExt infers the cover image extension from the album picture URL
// suffix, falling back to jpg when the suffix is unusable.
func ImageExt(picURL string) string {
	if i := strings.LastIndexByte(picURL, '.'); i >= 0 {
		ext := picURL[i+1:]
		if ext != "" && len(ext) <= 4 && !strings.ContainsAny(ext, "/?&=") {
			return ext
		}
	}
	return "jpg"
}

// Writer writes artifacts next to their input container, or into Dir
// when set. Existing files are preserved unless Overwrite is set.
type Writer struct {
	Dir       string
	Overwrite bool
}

// Write places data at the target path derived from inputPath and ext,
// returning the path written. The write goes through a uniquely named
// temp file in the target directory and a rename, so a crashed run
// never leaves a half-written artifact under the final name.
func (w *Writer) Write(inputPath, ext string, data []byte) (string, error) {
	target := TargetPath(inputPath, w.Dir, ext)
	if w.Dir != "" {
		if err := os.MkdirAll(w.Dir, 0o755); err != nil {
			return "", fmt.Errorf("creating output directory: %w", err)
		}
	}
	if !w.Overwrite {
		if _, err := os.Stat(target); err == nil {
			return "", fmt.Errorf("%s already exists (use overwrite to replace)", target)
		}
	}

	tmp := target + "." + uuid.NewString() + ".part"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("renaming into %s: %w", target, err)
	}
	return target, nil
}
