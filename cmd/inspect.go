package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/shuangsilab/ncm-dumper/internal/ncm"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [container]",
	Short: "Decrypt and print a container's metadata record",
	Long: `Parse one .ncm container and print its decrypted metadata without
writing any artifact.

Examples:
  ncm-dumper inspect song.ncm
  ncm-dumper inspect song.ncm -o json`,

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInspect(args[0])
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(path string) error {
	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	defer in.Close()

	f, err := ncm.Open(in)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	md, err := f.ParsedMetadata()
	if err != nil {
		return fmt.Errorf("metadata of %s: %w", path, err)
	}

	if outputFormat == "json" {
		out, err := json.MarshalIndent(md, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	artists := make([]string, len(md.Artists))
	for i, a := range md.Artists {
		artists[i] = a.Name
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Title:\t%s\n", md.MusicName)
	fmt.Fprintf(w, "Track ID:\t%s\n", md.MusicID)
	fmt.Fprintf(w, "Artists:\t%s\n", strings.Join(artists, ", "))
	fmt.Fprintf(w, "Album:\t%s (id %d)\n", md.Album, md.AlbumID)
	fmt.Fprintf(w, "Format:\t%s\n", md.Format)
	fmt.Fprintf(w, "Bitrate:\t%d kb/s\n", md.Bitrate/1000)
	fmt.Fprintf(w, "Duration:\t%s\n", (time.Duration(md.Duration) * time.Millisecond).Round(time.Second))
	fmt.Fprintf(w, "Cover URL:\t%s\n", md.AlbumPic)
	if len(md.Alias) > 0 {
		fmt.Fprintf(w, "Alias:\t%s\n", strings.Join(md.Alias, ", "))
	}
	if len(md.TransNames) > 0 {
		fmt.Fprintf(w, "Translated:\t%s\n", strings.Join(md.TransNames, ", "))
	}
	fmt.Fprintf(w, "Cover image:\t%d bytes\n", len(f.Image()))
	fmt.Fprintf(w, "Audio:\t%d bytes (ciphered)\n", len(f.RawMusic()))
	return w.Flush()
}
