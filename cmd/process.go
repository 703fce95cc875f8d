package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"pdfscrub/internal/archive"
	"pdfscrub/internal/cleanup"
	"pdfscrub/internal/logger"
	"pdfscrub/internal/metadata"
	"pdfscrub/internal/ocr"
	"pdfscrub/internal/redact"
	"pdfscrub/internal/render"
	"pdfscrub/internal/workflow"
)

var processCmd = &cobra.Command{
	Use:   "process [archive.zip]",
	Short: "Strip, redact and OCR every PDF in a ZIP archive",
	Long: `Run the full workflow over a ZIP archive of PDFs.

For every PDF in the archive:
  1. extract it to <output>/extracted_pdfs and remove its metadata
  2. black out the header and footer bands and every pattern match,
     writing <output>/redacted_pdfs/redacted_<name>.pdf
  3. render each page and run OCR on it
  4. remove copyright notices and trademark tokens from the text
  5. write <output>/text_output/<name>.txt

A file that fails a step is skipped and the run continues. A summary of
every file is written to <output>/report.json.

The OCR engine is checked before any file is touched; the command fails
if it is not available.`,
	Example: `  # Process an archive with the default settings
  pdfscrub process documents.zip

  # Custom output directory and pattern set
  pdfscrub process documents.zip --output out --patterns patterns.yaml

  # Use Google Cloud Vision and print the report as JSON
  pdfscrub process documents.zip --engine vision --json`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().String("output", "", "Output base directory (default: PDFSCRUB_OUTPUT_DIR or processed_output)")
	processCmd.Flags().String("patterns", "", "YAML pattern set (default: built-in set)")
	processCmd.Flags().String("engine", "", "OCR engine: tesseract, vision or documentai")
	processCmd.Flags().String("language", "", "Tesseract language(s), + separated")
	processCmd.Flags().Bool("case-sensitive", false, "Match patterns case-sensitively")
	processCmd.Flags().Bool("json", false, "Print the run report as JSON")
	processCmd.Flags().Int("timeout", 0, "Overall timeout in seconds (0 disables it)")
}

func runProcess(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("process")

	archivePath := args[0]
	jsonOutput, _ := cmd.Flags().GetBool("json")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if out, _ := cmd.Flags().GetString("output"); out != "" {
		cfg.OutputDir = out
	}

	if _, err := os.Stat(archivePath); err != nil {
		log.Error().Err(err).Str("archive", archivePath).Msg("Archive not accessible")
		return fmt.Errorf("%w: %s", archive.ErrArchiveNotFound, archivePath)
	}

	set, compiled, err := loadPatterns(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	engine, err := createEngine(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := engine.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close OCR engine")
		}
	}()

	// Print header
	if !jsonOutput {
		fmt.Println(strings.Repeat("=", 50))
		fmt.Println("                PDF PROCESSING")
		fmt.Println(strings.Repeat("=", 50))
		fmt.Printf("Archive: %s\n", archivePath)
		fmt.Printf("Output: %s\n", cfg.OutputDir)
		fmt.Printf("OCR engine: %s\n", engine.Name())
		fmt.Printf("Patterns: %d of %d compiled\n", len(compiled), set.Len())
		fmt.Println()
	}

	redactor := redact.New(redact.Config{
		HeaderHeight: cfg.HeaderHeight,
		FooterHeight: cfg.FooterHeight,
	}, compiled, logger.WithComponent("redact"))

	deps := workflow.Deps{
		Stripper:  metadata.Stripper{},
		Redactor:  redactor,
		Extractor: ocr.NewExtractor(render.Open, cfg.RenderScale, cfg.OCRDPI, engine, logger.WithComponent("ocr")),
		Cleaner:   cleanup.New(),
		Engine:    engine.Name(),
	}
	if jsonOutput {
		deps.Out = os.Stderr
	}

	report, err := workflow.New(deps, log).Run(ctx, archivePath, cfg.OutputDir)
	if err != nil && report == nil {
		switch {
		case errors.Is(err, archive.ErrNoPDFs):
			return fmt.Errorf("no PDF files found in %s", archivePath)
		case errors.Is(err, archive.ErrInvalidArchive):
			return fmt.Errorf("%s is not a valid ZIP archive: %w", archivePath, err)
		}
		return err
	}

	if jsonOutput {
		data, jsonErr := json.MarshalIndent(report, "", "  ")
		if jsonErr != nil {
			return fmt.Errorf("failed to create JSON output: %w", jsonErr)
		}
		fmt.Println(string(data))
	}

	if err != nil {
		return fmt.Errorf("run interrupted after %d of the archive's files: %w", len(report.Files), err)
	}
	return nil
}
