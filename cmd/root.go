package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/shuangsilab/ncm-dumper/internal/config"
	"github.com/shuangsilab/ncm-dumper/internal/logging"
)

var (
	// Global output flags only
	verbose      bool
	quiet        bool
	logJSON      bool
	outputFormat string

	cfg *config.Config
	log *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ncm-dumper",
	Short: "Recover audio, cover art and metadata from NetEase .ncm containers",
	Long: `ncm-dumper decrypts NetEase Cloud Music .ncm containers back into
plain audio files, cover images and metadata JSON.

Commands:
  dump        Decrypt containers in bulk, writing artifacts next to the
              inputs or into an output directory
  inspect     Decrypt and print a single container's metadata record`,
	Version: "0.2.0",

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		if quiet {
			level = "error"
		}
		log = logging.New(level, logJSON || cfg.LogJSON)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output except errors")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log in JSON format")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format for inspect (table, json)")
}
