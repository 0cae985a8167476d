package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xyproto/unzip"
)

var unpackDir string

var unpackCmd = &cobra.Command{
	Use:   "unpack <archive.zip>",
	Short: "Extract a zip archive of bar data",
	Long: `Unpack extracts a zip archive of CSV bar files into a directory.
Compressed members (.gz, .xz, .lzma) can be fed to 'run' as-is.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := unzip.Extract(args[0], unpackDir); err != nil {
			return fmt.Errorf("extract %s: %w", args[0], err)
		}
		fmt.Printf("extracted %s to %s\n", args[0], unpackDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(unpackCmd)

	unpackCmd.Flags().StringVarP(&unpackDir, "out", "o", ".", "output directory")
}
