package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"pdfscrub/internal/cleanup"
	"pdfscrub/internal/config"
	"pdfscrub/internal/logger"
	"pdfscrub/internal/ocr"
	"pdfscrub/internal/render"
)

var ocrCmd = &cobra.Command{
	Use:   "ocr [pdf-file]",
	Short: "Extract text from a PDF by rendering and OCR",
	Long: `Render every page of a PDF and recognize its text with the configured
OCR engine.

Pages are rendered at PDFSCRUB_RENDER_SCALE times 72 dpi and sent to the
engine as PNG. Pages with an unsupported color mode are skipped.

Engines:
  tesseract   - local Tesseract (binary built with -tags ocr)
  vision      - Google Cloud Vision document text detection
  documentai  - Google Document AI OCR processor

Google engines read credentials from:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string`,
	Example: `  # Extract text to stdout
  pdfscrub ocr report.pdf

  # Clean the text and save it to a file
  pdfscrub ocr report.pdf --clean -o report.txt

  # Use Cloud Vision and print JSON
  pdfscrub ocr report.pdf --engine vision --json`,
	Args: cobra.ExactArgs(1),
	RunE: runOCR,
}

// OCROutput represents the JSON output structure when --json flag is used
type OCROutput struct {
	Text               string    `json:"text"`
	FileName           string    `json:"file_name"`
	FileSize           int64     `json:"file_size"`
	Engine             string    `json:"engine"`
	PageCount          int       `json:"page_count"`
	PagesSkipped       int       `json:"pages_skipped,omitempty"`
	Cleaned            bool      `json:"cleaned"`
	ProcessedAt        time.Time `json:"processed_at"`
	ProcessingDuration string    `json:"processing_duration"`
}

func init() {
	rootCmd.AddCommand(ocrCmd)

	ocrCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	ocrCmd.Flags().Bool("clean", false, "Remove copyright notices and trademark tokens")
	ocrCmd.Flags().String("engine", "", "OCR engine: tesseract, vision or documentai")
	ocrCmd.Flags().String("language", "", "Tesseract language(s), + separated")
	ocrCmd.Flags().Bool("json", false, "Output as JSON")
	ocrCmd.Flags().Int("timeout", 300, "Processing timeout in seconds (0 disables it)")
}

func runOCR(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("ocr")

	outputPath, _ := cmd.Flags().GetString("output")
	clean, _ := cmd.Flags().GetBool("clean")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	pdfPath := args[0]

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log.Info().
		Str("file", pdfPath).
		Str("engine", cfg.OCREngine).
		Bool("clean", clean).
		Int("timeout", timeoutSecs).
		Msg("Starting OCR processing")

	fileInfo, err := validatePDFFile(pdfPath, log)
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

	extractor := ocr.NewExtractor(render.Open, cfg.RenderScale, cfg.OCRDPI, engine, log)
	result, err := extractor.Extract(ctx, pdfPath)
	if err != nil {
		return handleOCRError(err, log)
	}
	if result.Text == "" {
		return handleOCRError(ocr.ErrEmptyDocument, log)
	}

	if clean {
		result.Text = cleanup.Clean(result.Text)
	}

	log.Info().
		Int("page_count", result.PageCount).
		Int("pages_skipped", result.PagesSkipped).
		Dur("duration", result.ProcessingDuration).
		Int("text_length", len(result.Text)).
		Msg("OCR processing completed successfully")

	return outputResults(result, fileInfo, outputPath, jsonOutput, clean, log)
}

// validatePDFFile checks if the file exists, is readable, and appears to be a PDF
func validatePDFFile(pdfPath string, log zerolog.Logger) (os.FileInfo, error) {
	fileInfo, err := os.Stat(pdfPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Error().
				Str("file", pdfPath).
				Msg("PDF file not found")
			return nil, fmt.Errorf("PDF file not found: %s", pdfPath)
		}
		if os.IsPermission(err) {
			log.Error().
				Str("file", pdfPath).
				Msg("Permission denied accessing PDF file")
			return nil, fmt.Errorf("permission denied accessing PDF file: %s", pdfPath)
		}
		return nil, fmt.Errorf("error accessing PDF file: %w", err)
	}

	if !fileInfo.Mode().IsRegular() {
		log.Error().
			Str("file", pdfPath).
			Msg("Path is not a regular file")
		return nil, fmt.Errorf("path is not a regular file: %s", pdfPath)
	}

	// Basic validation only; the PDF readers decide the rest
	if !strings.HasSuffix(strings.ToLower(pdfPath), ".pdf") {
		log.Warn().
			Str("file", pdfPath).
			Msg("File does not have .pdf extension")
	}

	if fileInfo.Size() == 0 {
		log.Error().
			Str("file", pdfPath).
			Msg("PDF file is empty")
		return nil, fmt.Errorf("PDF file is empty: %s", pdfPath)
	}

	return fileInfo, nil
}

// createContextWithTimeout creates a context with timeout and signal handling.
// A timeout of zero or less leaves only the signal handling.
func createContextWithTimeout(timeoutSecs int, log zerolog.Logger) (context.Context, context.CancelFunc) {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if timeoutSecs > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	// Handle interrupt signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling processing")
			cancel()
		case <-ctx.Done():
			// Context completed normally
		}
	}()

	return ctx, cancel
}

// createEngine builds the configured OCR engine and runs the preflight
// check. Any failure here is fatal for the command.
func createEngine(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ocr.Engine, error) {
	if cfg.OCREngine != ocr.EngineTesseract {
		hasCredentials := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "" || os.Getenv("GOOGLE_CREDENTIALS") != ""
		if !hasCredentials {
			log.Warn().Msg("No Google Cloud credentials in the environment, trying Application Default Credentials")
		}
	}

	engine, err := ocr.NewEngine(ctx, ocr.Options{
		Engine:    cfg.OCREngine,
		Languages: cfg.OCRLanguages(),
		DocumentAI: ocr.DocumentAIConfig{
			ProjectID:        cfg.GoogleCloudProject,
			Location:         cfg.GoogleCloudLocation,
			ProcessorID:      cfg.DocumentAIProcessorID,
			ProcessorVersion: cfg.DocumentAIProcessorVersion,
		},
	})
	if err != nil {
		if errors.Is(err, ocr.ErrMissingCredentials) {
			log.Error().
				Err(err).
				Msg("Google Cloud credentials validation failed")
			return nil, fmt.Errorf("Google Cloud credentials validation failed. Please verify:\n\n" +
				"1. Credentials file exists and is readable\n" +
				"2. JSON format is valid\n" +
				"3. Service account has proper permissions\n\n" +
				"Original error: %w", err)
		}
		log.Error().
			Err(err).
			Str("engine", cfg.OCREngine).
			Msg("Failed to create OCR engine")
		return nil, fmt.Errorf("failed to create OCR engine: %w", err)
	}

	version, err := ocr.Preflight(ctx, engine, render.Available)
	if err != nil {
		_ = engine.Close()
		log.Error().Err(err).Str("engine", engine.Name()).Msg("OCR engine preflight failed")
		return nil, fmt.Errorf("OCR engine %s is not available: %w", engine.Name(), err)
	}

	log.Info().
		Str("engine", engine.Name()).
		Str("version", version).
		Msg("OCR engine ready")
	return engine, nil
}

// handleOCRError provides user-friendly error messages for OCR failures
func handleOCRError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("OCR processing failed")

	errStr := err.Error()

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("OCR processing timed out. Try increasing --timeout or processing a smaller file")
	case errors.Is(err, context.Canceled), errors.Is(err, ocr.ErrContextCanceled):
		return fmt.Errorf("OCR processing was canceled")
	case errors.Is(err, render.ErrRenderNotEnabled), errors.Is(err, ocr.ErrOCRNotEnabled):
		return fmt.Errorf("%w. Rebuild pdfscrub with -tags ocr or choose a cloud engine with --engine", err)
	case errors.Is(err, ocr.ErrImageTooLarge):
		return fmt.Errorf("a rendered page is too large for the engine (maximum 20MB). Try a lower PDFSCRUB_RENDER_SCALE")
	case errors.Is(err, ocr.ErrEmptyDocument):
		return fmt.Errorf("no readable text found in the document. The PDF may be blank or its pages unsupported")
	case strings.Contains(errStr, "Unauthenticated") ||
		strings.Contains(errStr, "invalid_grant") ||
		strings.Contains(errStr, "invalid_rapt") ||
		strings.Contains(errStr, "auth:") ||
		strings.Contains(errStr, "transport: per-RPC creds failed"):
		return fmt.Errorf("Google Cloud authentication failed. Please check your credentials:\n\n" +
			"1. Set GOOGLE_APPLICATION_CREDENTIALS to your service account JSON file path:\n" +
			"   export GOOGLE_APPLICATION_CREDENTIALS=/path/to/service-account-key.json\n\n" +
			"2. Or set GOOGLE_CREDENTIALS with inline JSON:\n" +
			"   export GOOGLE_CREDENTIALS='{\"type\":\"service_account\",\"project_id\":\"your-project\",...}'\n\n" +
			"3. If using Application Default Credentials, run:\n" +
			"   gcloud auth application-default login\n\n" +
			"Original error: %v", err)
	case strings.Contains(errStr, "PERMISSION_DENIED") ||
		strings.Contains(errStr, "permission") ||
		strings.Contains(errStr, "forbidden"):
		return fmt.Errorf("permission denied. Please ensure your Google Cloud service account may call the selected OCR API")
	case strings.Contains(errStr, "QUOTA_EXCEEDED") ||
		strings.Contains(errStr, "quota"):
		return fmt.Errorf("Google Cloud API quota exceeded. Check your project quotas in the Google Cloud Console")
	case errors.Is(err, ocr.ErrOCRFailed):
		return fmt.Errorf("OCR processing failed. This may be due to network issues, API quota limits, or service unavailability: %w", err)
	default:
		return fmt.Errorf("OCR processing failed: %w", err)
	}
}

// outputResults formats and outputs the OCR results
func outputResults(result *ocr.Result, fileInfo os.FileInfo, outputPath string, jsonOutput, cleaned bool, log zerolog.Logger) error {
	var (
		outputData []byte
		err        error
	)

	if jsonOutput {
		ocrOutput := OCROutput{
			Text:               result.Text,
			FileName:           filepath.Base(fileInfo.Name()),
			FileSize:           fileInfo.Size(),
			Engine:             result.Engine,
			PageCount:          result.PageCount,
			PagesSkipped:       result.PagesSkipped,
			Cleaned:            cleaned,
			ProcessedAt:        result.ProcessedAt,
			ProcessingDuration: result.ProcessingDuration.String(),
		}

		outputData, err = json.MarshalIndent(ocrOutput, "", "  ")
		if err != nil {
			log.Error().Err(err).Msg("Failed to marshal JSON output")
			return fmt.Errorf("failed to create JSON output: %w", err)
		}
	} else {
		outputData = []byte(result.Text)
	}

	return writeOutput(outputPath, outputData, log)
}

// writeOutput writes data to path, or to stdout when path is empty.
func writeOutput(outputPath string, data []byte, log zerolog.Logger) error {
	if outputPath == "" {
		if _, err := os.Stdout.Write(data); err != nil {
			log.Error().Err(err).Msg("Failed to write to stdout")
			return fmt.Errorf("failed to write output: %w", err)
		}
		if len(data) > 0 && data[len(data)-1] != '\n' {
			fmt.Println()
		}
		return nil
	}

	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		log.Error().
			Err(err).
			Str("output_file", outputPath).
			Msg("Failed to write output file")
		return fmt.Errorf("failed to write output file: %w", err)
	}

	log.Info().
		Str("output_file", outputPath).
		Int("bytes", len(data)).
		Msg("Results written to file")
	return nil
}
