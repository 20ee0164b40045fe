// Package cmdutil provides shared utilities for lictl commands.
package cmdutil

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/entraops/lictl/internal/cli/output"
	"github.com/entraops/lictl/internal/cli/prompt"
	"github.com/entraops/lictl/pkg/config"
	"github.com/entraops/lictl/pkg/directory"
)

// Flags stores global flag values accessible by subcommands.
var Flags = &GlobalFlags{}

// GlobalFlags holds the global flag values.
type GlobalFlags struct {
	ConfigPath string
	ServerURL  string
	Token      string
	Output     string
	NoColor    bool
	Verbose    bool
}

// LoadConfig loads configuration and applies flag overrides on top of
// file and environment values.
func LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(Flags.ConfigPath)
	if err != nil {
		return nil, err
	}

	if Flags.ServerURL != "" {
		cfg.Directory.BaseURL = Flags.ServerURL
	}
	if Flags.Token != "" {
		cfg.Directory.Token = Flags.Token
	}
	if Flags.Output != "" {
		cfg.Output.Format = Flags.Output
	}

	return cfg, nil
}

// GetClient returns a directory client built from the loaded
// configuration and flag overrides.
func GetClient() (*directory.Client, *config.Config, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	if cfg.Directory.BaseURL == "" {
		return nil, nil, errors.New("no directory base URL configured. " +
			"Set directory.base_url in the config file, LICTL_DIRECTORY_BASE_URL, or --server")
	}

	client := directory.New(cfg.Directory.BaseURL).
		WithToken(cfg.Directory.Token).
		WithTimeout(cfg.Directory.Timeout)
	return client, cfg, nil
}

// GetOutputFormatParsed returns the parsed output format.
func GetOutputFormatParsed() (output.Format, error) {
	return output.ParseFormat(Flags.Output)
}

// IsColorDisabled returns whether color output is disabled.
func IsColorDisabled() bool {
	return Flags.NoColor
}

// IsVerbose returns whether verbose output is enabled.
func IsVerbose() bool {
	return Flags.Verbose
}

// PrintOutput prints data in the specified format (JSON, YAML, CSV, or
// table). For table format, it displays emptyMsg if data is empty,
// otherwise uses the tableRenderer.
func PrintOutput(w io.Writer, data any, isEmpty bool, emptyMsg string, tableRenderer output.TableRenderer) error {
	format, err := GetOutputFormatParsed()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(w, data)
	case output.FormatYAML:
		return output.PrintYAML(w, data)
	case output.FormatCSV:
		if renderer, ok := data.(output.CSVRenderer); ok {
			return renderer.WriteCSV(w)
		}
		if renderer, ok := tableRenderer.(output.CSVRenderer); ok {
			return renderer.WriteCSV(w)
		}
		return fmt.Errorf("csv output is not supported for this command")
	default:
		if isEmpty {
			_, _ = fmt.Fprintln(w, emptyMsg)
			return nil
		}
		return output.PrintTable(w, tableRenderer)
	}
}

// PrintSuccess prints a success message if the output format is table.
func PrintSuccess(msg string) {
	format, err := GetOutputFormatParsed()
	if err != nil || format != output.FormatTable {
		return
	}
	printer := output.NewPrinter(os.Stdout, format, !IsColorDisabled())
	printer.Success(msg)
}

// PrintWarning prints a warning message if the output format is table.
func PrintWarning(msg string) {
	format, err := GetOutputFormatParsed()
	if err != nil || format != output.FormatTable {
		return
	}
	printer := output.NewPrinter(os.Stdout, format, !IsColorDisabled())
	printer.Warning(msg)
}

// HandleAbort checks if error is an abort (Ctrl+C) and prints a message.
// Returns nil for abort (user cancelled), otherwise returns the original error.
func HandleAbort(err error) error {
	if prompt.IsAborted(err) {
		fmt.Println("\nAborted.")
		return nil
	}
	return err
}

// WriteReportFile writes a run report as CSV to the given path.
func WriteReportFile(path string, r output.CSVRenderer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := r.WriteCSV(f); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// BoolToYesNo converts a boolean to "yes" or "no" string.
func BoolToYesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// EmptyOr returns the value if not empty, otherwise returns the fallback.
// Useful for table display where empty fields should show "-".
func EmptyOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
