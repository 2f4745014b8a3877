package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/shuangsilab/ncm-dumper/internal/batch"
	"github.com/shuangsilab/ncm-dumper/internal/ncm"
	"github.com/shuangsilab/ncm-dumper/internal/output"
)

var (
	// Input selection (dump-specific)
	dumpFileLists []string
	dumpRecursive bool

	// Output selection
	dumpOutputDir string
	dumpNoMusic   bool
	dumpImage     bool
	dumpMetadata  bool
	dumpTag       bool
	dumpOverwrite bool

	// Batch behavior
	dumpThreads    int
	dumpSkipErrors bool
)

var dumpCmd = &cobra.Command{
	Use:   "dump [files or directories...]",
	Short: "Decrypt .ncm containers into audio, cover art and metadata",
	Long: `Decrypt one or many .ncm containers. Directories contribute their
*.ncm entries; add --recursive to descend into subdirectories.

Examples:
  # Decrypt a single file next to itself
  ncm-dumper dump song.ncm

  # Decrypt a whole library into ./out, keeping going past bad files
  ncm-dumper dump ~/Music/VipSongs --recursive --skip-errors --output-dir ./out

  # Also extract cover art and metadata, and tag mp3 output
  ncm-dumper dump song.ncm --image --metadata --tag

  # Take inputs from a list file (UTF-8 or GBK, one path per line)
  ncm-dumper dump --filelist songs.txt`,

	RunE: func(cmd *cobra.Command, args []string) error {
		applyDumpConfig(cmd)
		return runDump(cmd.Context(), args)
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)

	dumpCmd.Flags().StringArrayVarP(&dumpFileLists, "filelist", "f", nil, "file holding one input path per line (repeatable)")
	dumpCmd.Flags().BoolVarP(&dumpRecursive, "recursive", "r", false, "descend into subdirectories of directory inputs")

	dumpCmd.Flags().StringVarP(&dumpOutputDir, "output-dir", "d", "", "directory for artifacts (default: next to each input)")
	dumpCmd.Flags().BoolVar(&dumpNoMusic, "no-music", false, "skip the decrypted audio artifact")
	dumpCmd.Flags().BoolVar(&dumpImage, "image", false, "also extract the cover image")
	dumpCmd.Flags().BoolVar(&dumpMetadata, "metadata", false, "also extract the raw metadata JSON")
	dumpCmd.Flags().BoolVar(&dumpTag, "tag", false, "write ID3 tags (title, artist, album, cover) into mp3 output")
	dumpCmd.Flags().BoolVar(&dumpOverwrite, "overwrite", false, "overwrite existing artifacts")

	dumpCmd.Flags().IntVarP(&dumpThreads, "threads", "t", 0, "worker count (default: config or CPU count)")
	dumpCmd.Flags().BoolVar(&dumpSkipErrors, "skip-errors", false, "record failures and keep processing instead of aborting")
}

// applyDumpConfig fills every flag the user left untouched from the
// loaded config file, so flags always win.
func applyDumpConfig(cmd *cobra.Command) {
	flags := cmd.Flags()
	if !flags.Changed("threads") {
		dumpThreads = cfg.Threads
	}
	if !flags.Changed("output-dir") {
		dumpOutputDir = cfg.OutputDir
	}
	if !flags.Changed("skip-errors") {
		dumpSkipErrors = cfg.SkipErrors
	}
	if !flags.Changed("no-music") {
		dumpNoMusic = cfg.NoMusic
	}
	if !flags.Changed("image") {
		dumpImage = cfg.WithImage
	}
	if !flags.Changed("metadata") {
		dumpMetadata = cfg.WithMetadata
	}
	if !flags.Changed("tag") {
		dumpTag = cfg.TagMP3
	}
	if !flags.Changed("overwrite") {
		dumpOverwrite = cfg.Overwrite
	}
}

func runDump(ctx context.Context, args []string) error {
	if dumpNoMusic && !dumpImage && !dumpMetadata {
		return errors.New("nothing to do: audio disabled and no other artifact requested")
	}

	inputs := args
	for _, list := range dumpFileLists {
		paths, err := batch.ReadFileList(list)
		if err != nil {
			return err
		}
		inputs = append(inputs, paths...)
	}
	if len(inputs) == 0 {
		return errors.New("no inputs given; pass files, directories or --filelist")
	}

	files, err := batch.Collect(inputs, dumpRecursive)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.New("no .ncm files found")
	}

	log.WithField("files", len(files)).Info("starting batch")
	writer := &output.Writer{Dir: dumpOutputDir, Overwrite: dumpOverwrite}

	total := len(files)
	var done atomic.Int64
	results, err := batch.Process(ctx, files, dumpThreads, !dumpSkipErrors,
		func(ctx context.Context, path string) error {
			if err := dumpOne(path, writer); err != nil {
				log.WithError(err).WithField("file", path).Error("dump failed")
				return err
			}
			log.Infof("[%d/%d] done [%s]", done.Add(1), total, path)
			return nil
		})
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, total)
	}
	return nil
}

// dumpOne runs the full pipeline for one container: parse, decrypt,
// and write each requested artifact.
func dumpOne(path string, writer *output.Writer) error {
	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	defer in.Close()

	f, err := ncm.Open(in)
	if err != nil {
		if errors.Is(err, ncm.ErrInvalidHeader) {
			return fmt.Errorf("%s is not an NCM file: %w", path, err)
		}
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	md, err := f.ParsedMetadata()
	if err != nil {
		return fmt.Errorf("metadata of %s: %w", path, err)
	}

	if !dumpNoMusic {
		music, err := f.Music()
		if err != nil {
			return fmt.Errorf("decrypting %s: %w", path, err)
		}
		if dumpTag && strings.EqualFold(md.Format, "mp3") {
			tagged, err := output.TagMP3(music, md, f.Image())
			if err != nil {
				log.WithError(err).WithField("file", path).Warn("tagging failed, writing untagged audio")
			} else {
				music = tagged
			}
		}
		target, err := writer.Write(path, md.Format, music)
		if err != nil {
			return err
		}
		log.WithField("artifact", target).Debug("wrote audio")
	}

	if dumpImage && len(f.Image()) > 0 {
		if _, err := writer.Write(path, output.ImageExt(md.AlbumPic), f.Image()); err != nil {
			return err
		}
	}

	if dumpMetadata {
		if _, err := writer.Write(path, "json", f.RawMetadata()); err != nil {
			return err
		}
	}
	return nil
}
