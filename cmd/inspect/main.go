// Package main provides a command line front end to the same preview,
// paging and export code the HTTP server uses.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/sheetinspect/internal/core"
	"github.com/JonMunkholm/sheetinspect/internal/logging"
	"github.com/JonMunkholm/sheetinspect/internal/xlsx"
	"github.com/spf13/cobra"
)

var (
	outputPath string
	pretty     bool
	logLevel   string
	sampleRows int
	sheetName  string
	offset     int
	limit      int
	format     string
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Preview, page and export spreadsheet workbooks",
		Long: `inspect reads an .xlsx workbook and prints a per-sheet preview,
a window of rows, or a full sheet as CSV or JSON.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(logLevel, "text")
		},
	}

	rootCmd.PersistentFlags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")
	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	previewCmd := &cobra.Command{
		Use:   "preview [input.xlsx]",
		Short: "Show headers, sample rows and row counts for every sheet",
		Args:  cobra.ExactArgs(1),
		RunE:  runPreview,
	}
	previewCmd.Flags().IntVar(&sampleRows, "sample-rows", core.DefaultSampleRows, "Sample rows per sheet")

	pageCmd := &cobra.Command{
		Use:   "page [input.xlsx]",
		Short: "Print one window of a sheet's data rows",
		Args:  cobra.ExactArgs(1),
		RunE:  runPage,
	}
	pageCmd.Flags().StringVar(&sheetName, "sheet", "", "Sheet name (case-sensitive)")
	pageCmd.Flags().IntVar(&offset, "offset", 0, "Data rows to skip")
	pageCmd.Flags().IntVar(&limit, "limit", 100, "Data rows to return")
	pageCmd.MarkFlagRequired("sheet")

	exportCmd := &cobra.Command{
		Use:   "export [input.xlsx]",
		Short: "Write a whole sheet as CSV or JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runExport,
	}
	exportCmd.Flags().StringVar(&sheetName, "sheet", "", "Sheet name (case-sensitive)")
	exportCmd.Flags().StringVar(&format, "format", "csv", "Export format: csv, json")
	exportCmd.MarkFlagRequired("sheet")

	rootCmd.AddCommand(previewCmd, pageCmd, exportCmd)
	return rootCmd
}

// session holds a service with the input workbook already cached.
type session struct {
	service *core.Service
	preview *core.PreviewResult
}

func open(ctx context.Context, path string, samples int) (*session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	service := core.NewService(
		core.NewMemoryStore(core.StoreConfig{Capacity: 1}),
		xlsx.NewParser(xlsx.Options{}),
		nil,
	)

	preview, err := service.Preview(ctx, filepath.Base(path), data, samples)
	if err != nil {
		return nil, err
	}
	return &session{service: service, preview: preview}, nil
}

func runPreview(cmd *cobra.Command, args []string) error {
	if sampleRows < 1 || sampleRows > core.MaxSampleRows {
		return fmt.Errorf("invalid --sample-rows %d (must be 1-%d)", sampleRows, core.MaxSampleRows)
	}

	s, err := open(cmd.Context(), args[0], sampleRows)
	if err != nil {
		return err
	}
	return writeOutput(cmd, func(w io.Writer) error {
		return encodeJSON(w, s.preview.Sheets)
	})
}

func runPage(cmd *cobra.Command, args []string) error {
	s, err := open(cmd.Context(), args[0], 1)
	if err != nil {
		return err
	}

	page, err := s.service.Page(cmd.Context(), s.preview.Token, sheetName, offset, limit)
	if err != nil {
		return err
	}
	return writeOutput(cmd, func(w io.Writer) error {
		return encodeJSON(w, page)
	})
}

func runExport(cmd *cobra.Command, args []string) error {
	if format != "csv" && format != "json" {
		return fmt.Errorf("invalid format: %s (must be csv or json)", format)
	}

	s, err := open(cmd.Context(), args[0], 1)
	if err != nil {
		return err
	}

	export, err := s.service.OpenExport(cmd.Context(), s.preview.Token, sheetName)
	if err != nil {
		return err
	}
	defer export.Close()

	return writeOutput(cmd, func(w io.Writer) error {
		if format == "csv" {
			_, err := export.WriteCSV(cmd.Context(), w)
			return err
		}
		rows, err := export.Rows(cmd.Context())
		if err != nil {
			return err
		}
		return encodeJSON(w, rows)
	})
}

// writeOutput sends fn's output to --output, or to the command's stdout.
func writeOutput(cmd *cobra.Command, fn func(io.Writer) error) error {
	if outputPath == "" {
		return fn(cmd.OutOrStdout())
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
