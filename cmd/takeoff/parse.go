package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/steelforge/takeoff/internal/cli"
	"github.com/steelforge/takeoff/internal/config"
	"github.com/steelforge/takeoff/internal/model"
	"github.com/steelforge/takeoff/internal/parser"
)

func init() {
	parseCmd := &cobra.Command{
		Use:   "parse [files...]",
		Short: "Parse CAD files and print the extracted takeoff",
		Long: `Parse structural CAD exports without staging a session.

Examples:
  # Parse a single SMLX archive
  takeoff parse ~/jobs/warehouse.smlx

  # Parse several IFC models
  takeoff parse ~/jobs/*.ifc

  # Emit the full parse result as JSON
  takeoff parse --json ~/jobs/warehouse.smlx`,
		Args: cobra.MinimumNArgs(1),
		RunE: runParse,
	}

	parseCmd.Flags().Bool("json", false, "Print the full parse result as JSON")

	rootCmd.AddCommand(parseCmd)
}

type parsedFile struct {
	FileName string             `json:"fileName"`
	Result   *model.ParseResult `json:"result"`
}

func runParse(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	settings, err := config.Load()
	if err != nil {
		return err
	}

	// Expand globs and collect all files
	var allFiles []string
	for _, pattern := range args {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err == nil {
				allFiles = append(allFiles, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
		} else {
			allFiles = append(allFiles, matches...)
		}
	}

	if len(allFiles) == 0 {
		return fmt.Errorf("no files found to parse")
	}

	svc := parser.NewService(parser.Options{
		MaxUncompressedBytes: settings.MaxUncompressedBytes,
		MarkRules:            settings.MarkRules,
	})

	var bar *progressbar.ProgressBar
	if !asJSON && len(allFiles) > 1 {
		bar = progressbar.NewOptions(len(allFiles),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription("Parsing files..."),
		)
	}

	var parsed []parsedFile
	var failures int

	for _, filePath := range allFiles {
		data, err := os.ReadFile(filePath)
		if err != nil {
			slog.Error("Failed to read file", "file", filePath, "error", err)
			failures++
			continue
		}

		result, err := svc.Parse(cmd.Context(), filepath.Base(filePath), data)
		if err != nil {
			slog.Error("Failed to parse file", "file", filePath, "error", err)
			failures++
			continue
		}

		parsed = append(parsed, parsedFile{FileName: filepath.Base(filePath), Result: result})
		if bar != nil {
			_ = bar.Add(1)
		}
	}

	if bar != nil {
		fmt.Fprintln(os.Stderr)
	}

	if len(parsed) == 0 {
		return fmt.Errorf("no files parsed successfully")
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(parsed); err != nil {
			return fmt.Errorf("failed to encode results: %w", err)
		}
		return nil
	}

	for _, pf := range parsed {
		printSummary(pf.FileName, pf.Result)
	}

	if failures > 0 {
		fmt.Println(cli.FormatWarning(fmt.Sprintf("%d file(s) failed to parse", failures)))
	}

	return nil
}

func printSummary(fileName string, result *model.ParseResult) {
	content := fmt.Sprintf(
		"Format:       %s\nElements:     %d\nIdentified:   %d\nUnidentified: %d\nAssemblies:   %d",
		result.FileType,
		result.TotalElementCount,
		result.IdentifiedCount,
		result.UnidentifiedCount,
		result.AssemblyCount,
	)
	fmt.Println(cli.RenderBox(fileName, content))

	for _, asm := range result.Assemblies {
		mark := asm.Mark
		if mark == "" {
			mark = asm.SuggestedMark + " (suggested)"
		}
		fmt.Printf("  %s %s: %d parts, %.1f kg\n",
			cli.SuccessStyle.Render("▪"), mark, asm.PartCount(), asm.TotalWeight)
	}

	if len(result.LooseParts) > 0 {
		fmt.Printf("  %s %d loose part(s)\n",
			cli.SubtleStyle.Render("▪"), len(result.LooseParts))
	}

	for _, w := range result.Warnings {
		fmt.Println("  " + cli.FormatWarning(fmt.Sprintf("skipped %s: %s", w.Element, w.Reason)))
	}
}
