package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"pdfscrub/internal/config"
	"pdfscrub/internal/logger"
	"pdfscrub/internal/patterns"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "pdfscrub",
	Short: "Scrub, redact and OCR archives of PDF documents",
	Long: `pdfscrub turns a ZIP archive of PDFs into plain text with the
boilerplate removed.

Every PDF is stripped of its document metadata, redacted (header and
footer bands plus a configurable list of literal and regex patterns),
rendered page by page and passed through OCR. The recognized text is
cleaned of copyright notices and trademark tokens and written as one .txt
file per PDF.

Configuration is read from the environment (and an optional .env file);
command flags override it.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Debug().
			Str("version", version).
			Msg("pdfscrub executed without a command")

		fmt.Println("Welcome to pdfscrub!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}

// loadConfig reads the environment configuration and applies the flags the
// command defines on top of it. Only flags that were set override a value.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("patterns") {
		cfg.PatternsFile, _ = flags.GetString("patterns")
	}
	if flags.Changed("case-sensitive") {
		cfg.CaseSensitive, _ = flags.GetBool("case-sensitive")
		cfg.CaseSensitiveSet = true
	}
	if flags.Changed("engine") {
		engine, _ := flags.GetString("engine")
		cfg.OCREngine = strings.ToLower(engine)
	}
	if flags.Changed("language") {
		cfg.OCRLanguage, _ = flags.GetString("language")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

// loadPatterns loads the configured pattern set and compiles it. Entries
// that fail to compile are logged and left out.
func loadPatterns(cfg *config.Config) (*patterns.Set, []patterns.Compiled, error) {
	log := logger.WithComponent("patterns")

	set, err := patterns.LoadOrDefault(cfg.PatternsFile)
	if err != nil {
		log.Error().Err(err).Str("file", cfg.PatternsFile).Msg("Failed to load pattern set")
		return nil, nil, err
	}
	if cfg.CaseSensitiveSet {
		set.CaseSensitive = cfg.CaseSensitive
	}

	compiled := set.Compile(log)
	log.Debug().
		Int("entries", set.Len()).
		Int("compiled", len(compiled)).
		Bool("case_sensitive", set.CaseSensitive).
		Msg("Pattern set ready")
	return set, compiled, nil
}
