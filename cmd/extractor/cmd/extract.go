package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"statement-extraction-service/cmd/extractor/config"
	"statement-extraction-service/internal/process"
	"statement-extraction-service/internal/report"
	pkgerrors "statement-extraction-service/pkg/errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the extract command
var (
	inputPath    string
	outputDir    string
	reportFormat string
	bankHint     string
	showProgress bool
	skipWrite    bool
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract transactions from bank statements",
	Long: `Extract reconstructs transaction records from one statement or a
whole directory of statements.

For each processed document two artifacts are written to the output
directory: <name>_transactions.csv with the reconstructed records, and
<name>_validation_report.txt with the validation findings.

Examples:
  # Single statement
  extractor extract --input statement.pdf

  # Whole directory, custom output location
  extractor extract --input data/ --output-dir results

  # JSON validation output on stdout, no artifacts
  extractor extract --input statement.pdf --no-write --report-format json`,

	PreRunE: validateExtractFlags,
	RunE:    runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVarP(&inputPath, "input", "i", "", "statement file or directory (required)")
	extractCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "output", "directory for CSV and report artifacts")
	extractCmd.Flags().StringVarP(&reportFormat, "report-format", "f", "console", "stdout report format: console, json, text")
	extractCmd.Flags().StringVar(&bankHint, "bank", "", "issuer hint forcing a bank-specific layout (e.g. pnb)")
	extractCmd.Flags().BoolVar(&showProgress, "progress", false, "show step progress")
	extractCmd.Flags().BoolVar(&skipWrite, "no-write", false, "skip writing artifacts to disk")

	extractCmd.MarkFlagRequired("input")

	viper.BindPFlag("input", extractCmd.Flags().Lookup("input"))
	viper.BindPFlag("output-dir", extractCmd.Flags().Lookup("output-dir"))
	viper.BindPFlag("report-format", extractCmd.Flags().Lookup("report-format"))
	viper.BindPFlag("bank", extractCmd.Flags().Lookup("bank"))
	viper.BindPFlag("progress", extractCmd.Flags().Lookup("progress"))
	viper.BindPFlag("no-write", extractCmd.Flags().Lookup("no-write"))
}

func validateExtractFlags(cmd *cobra.Command, args []string) error {
	inputPath = viper.GetString("input")
	outputDir = viper.GetString("output-dir")
	reportFormat = viper.GetString("report-format")
	bankHint = viper.GetString("bank")
	showProgress = viper.GetBool("progress")
	skipWrite = viper.GetBool("no-write")

	if inputPath == "" {
		return fmt.Errorf("input is required")
	}
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("input does not exist: %s", inputPath)
	}

	if !report.OutputFormat(reportFormat).IsValid() {
		return fmt.Errorf("invalid report format '%s'. Valid formats: console, json, text", reportFormat)
	}
	if !skipWrite && outputDir == "" {
		return fmt.Errorf("output-dir cannot be empty")
	}
	return nil
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	processorConfig, err := config.CreateProcessorConfig()
	if err != nil {
		return err
	}
	processorConfig.OutputDir = outputDir
	processorConfig.WriteArtifacts = !skipWrite
	processorConfig.Report.Format = report.OutputFormat(reportFormat)
	processorConfig.BankHint = bankHint

	processor, err := process.NewProcessor(processorConfig)
	if err != nil {
		return err
	}

	if showProgress {
		processor.AddStepCallback(func(step string, completed, total int) {
			fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", completed+1, total, step)
		})
	}

	generator, err := report.NewGenerator(processorConfig.Report)
	if err != nil {
		return err
	}

	info, err := os.Stat(inputPath)
	if err != nil {
		return pkgerrors.FileError(pkgerrors.CodeFileNotFound, inputPath, err)
	}

	if info.IsDir() {
		return runExtractDirectory(ctx, processor, generator)
	}
	return runExtractFile(ctx, processor, generator)
}

func runExtractFile(ctx context.Context, processor *process.Processor, generator *report.Generator) error {
	outcome, err := processor.ProcessFile(ctx, inputPath)
	if err != nil {
		return err
	}

	if err := generator.WriteValidationReport(outcome.Validation, os.Stdout); err != nil {
		return err
	}
	printOutcomeSummary(outcome)
	return nil
}

func runExtractDirectory(ctx context.Context, processor *process.Processor, generator *report.Generator) error {
	batch, err := processor.ProcessDirectory(ctx, inputPath)
	if err != nil {
		return err
	}

	for _, outcome := range batch.Outcomes {
		if err := generator.WriteValidationReport(outcome.Validation, os.Stdout); err != nil {
			return err
		}
		printOutcomeSummary(outcome)
	}

	if len(batch.Failures) > 0 {
		var failed []string
		for path := range batch.Failures {
			failed = append(failed, path)
		}
		return pkgerrors.New(pkgerrors.CategoryExtraction, pkgerrors.CodeNoExtractableText,
			fmt.Sprintf("%d of %d statements failed: %s",
				len(batch.Failures), len(batch.Failures)+len(batch.Outcomes),
				strings.Join(failed, ", "))).
			WithSuggestion("Re-run with --verbose for per-file details")
	}
	return nil
}

func printOutcomeSummary(outcome *process.Outcome) {
	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "%s: %s\n", outcome.SourcePath, outcome.ParseStats.String())
		if outcome.CSVPath != "" {
			fmt.Fprintf(os.Stderr, "  wrote %s\n", outcome.CSVPath)
			fmt.Fprintf(os.Stderr, "  wrote %s\n", outcome.ReportPath)
		}
		if len(outcome.LineErrors) > 0 {
			fmt.Fprint(os.Stderr, pkgerrors.FormatLineErrorsForUser(outcome.LineErrors))
		}
	}
}
