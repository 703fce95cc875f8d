package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"pdfscrub/internal/cleanup"
	"pdfscrub/internal/logger"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [text-file|-]",
	Short: "Remove copyright notices and trademark tokens from text",
	Long: `Apply the post-OCR cleanup to a text file.

A line matching the copyright marker is dropped together with the line
before it and the line after it. Occurrences of the trademark token are
removed from all other lines. Without an argument, or with "-", the text
is read from standard input.`,
	Example: `  # Clean a file in place
  pdfscrub clean notes.txt -o notes.txt

  # Use it in a pipe
  pdfscrub ocr report.pdf | pdfscrub clean`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)

	cleanCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
}

func runClean(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("clean")
	outputPath, _ := cmd.Flags().GetString("output")

	var (
		data []byte
		err  error
	)
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to read input")
		return fmt.Errorf("failed to read input: %w", err)
	}

	cleaned := cleanup.Clean(string(data))
	log.Debug().
		Int("in", len(data)).
		Int("out", len(cleaned)).
		Msg("Text cleaned")

	return writeOutput(outputPath, []byte(cleaned), log)
}
