// Package batch collects NCM container paths from mixed inputs and
// fans the per-file work out over a bounded worker pool. The container
// pipeline itself is sequential per file; all parallelism lives here.
package batch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const ncmExt = ".ncm"

// Collect expands a mixed list of files and directories into the list
// of container files to process. Explicitly named files are taken as
// given; directories contribute their *.ncm entries, descending into
// subdirectories only when recursive is set. Order follows the inputs,
// duplicates are dropped.
func Collect(inputs []string, recursive bool) ([]string, error) {
	var files []string
	seen := make(map[string]struct{})

	add := func(path string) {
		path = filepath.Clean(path)
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", input, err)
		}
		if !info.IsDir() {
			add(input)
			continue
		}

		root := filepath.Clean(input)
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && !recursive {
					return fs.SkipDir
				}
				return nil
			}
			if strings.EqualFold(filepath.Ext(path), ncmExt) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", input, err)
		}
	}
	return files, nil
}
