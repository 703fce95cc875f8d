package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"pdfscrub/internal/logger"
	"pdfscrub/internal/metadata"
	"pdfscrub/internal/redact"
)

var redactCmd = &cobra.Command{
	Use:   "redact [input.pdf] [output.pdf]",
	Short: "Black out header, footer and pattern matches in a single PDF",
	Long: `Write a redacted copy of a PDF.

The header and footer bands (PDFSCRUB_HEADER_HEIGHT and
PDFSCRUB_FOOTER_HEIGHT points) are painted over on pages that have
content there. Every match of the pattern set is painted over unless it
touches a band. A document with nothing to redact is copied unchanged.`,
	Example: `  # Redact with the built-in pattern set
  pdfscrub redact report.pdf redacted.pdf

  # Use a custom pattern set, also strip metadata and show what is left
  pdfscrub redact report.pdf redacted.pdf --patterns patterns.yaml --strip-metadata --inspect`,
	Args: cobra.ExactArgs(2),
	RunE: runRedact,
}

func init() {
	rootCmd.AddCommand(redactCmd)

	redactCmd.Flags().String("patterns", "", "YAML pattern set (default: built-in set)")
	redactCmd.Flags().Bool("case-sensitive", false, "Match patterns case-sensitively")
	redactCmd.Flags().Bool("strip-metadata", false, "Remove document metadata from the output")
	redactCmd.Flags().Bool("inspect", false, "Print the metadata left in the output")
}

func runRedact(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("redact")

	inPath, outPath := args[0], args[1]
	strip, _ := cmd.Flags().GetBool("strip-metadata")
	inspect, _ := cmd.Flags().GetBool("inspect")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	_, compiled, err := loadPatterns(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := createContextWithTimeout(0, log)
	defer cancel()

	redactor := redact.New(redact.Config{
		HeaderHeight: cfg.HeaderHeight,
		FooterHeight: cfg.FooterHeight,
	}, compiled, log)

	result, err := redactor.Redact(ctx, inPath, outPath)
	if err != nil {
		if errors.Is(err, redact.ErrInputNotFound) {
			return fmt.Errorf("PDF file not found: %s", inPath)
		}
		return err
	}

	if strip {
		if err := metadata.Strip(outPath); err != nil {
			return err
		}
		log.Info().Str("file", outPath).Msg("Metadata removed")
	}

	fmt.Printf("Pages: %d\n", result.Pages)
	if result.Copied {
		fmt.Println("Nothing to redact, copied unchanged")
	} else {
		fmt.Printf("Redactions: %d (%d bands, %d matches)\n", result.Redactions, result.BandRedactions, result.MatchRedactions)
		fmt.Printf("Glyphs and images removed: %d\n", result.Erased)
	}
	if result.Suppressed > 0 {
		fmt.Printf("Matches inside bands: %d\n", result.Suppressed)
	}
	if result.TextLayerFailures > 0 {
		fmt.Printf("Pages without a readable text layer: %d\n", result.TextLayerFailures)
	}
	fmt.Printf("Written: %s\n", outPath)

	if inspect {
		return printMetadata(outPath)
	}
	return nil
}

func printMetadata(path string) error {
	info, err := metadata.Read(path)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Metadata:")
	if len(info.Fields) == 0 {
		fmt.Println("  (no information dictionary)")
	}
	for _, k := range info.Keys() {
		fmt.Printf("  %s: %s\n", k, info.Fields[k])
	}
	fmt.Printf("  XMP stream: %t\n", info.XMP)
	return nil
}
