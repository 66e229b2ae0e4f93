package main

import (
	"fmt"
	"io"

	"github.com/iwvelando/noi-analyzer/internal/analysis"
	"github.com/iwvelando/noi-analyzer/internal/config"
	"github.com/iwvelando/noi-analyzer/pkg/constants"
	"github.com/iwvelando/noi-analyzer/pkg/output"
	"github.com/iwvelando/noi-analyzer/pkg/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type compareOptions struct {
	configPath   string
	outputFormat string
	logLevel     string
}

func newCompareCommand() *cobra.Command {
	opts := compareOptions{}
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare the periods of a comparison file and print the report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCompare(cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", constants.DefaultConfigFile, "path to comparison file")
	cmd.Flags().StringVarP(&opts.outputFormat, "output-format", "o", "", "type of output override: pretty, csv, json")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	return cmd
}

func runCompare(w io.Writer, opts compareOptions) error {
	conf, err := config.LoadConfiguration(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration at %s: %w", opts.configPath, err)
	}

	logger, err := initializeLogger(conf.Logging, opts.logLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// CLI override takes precedence over config
	outputFormat := conf.Output.Format
	if opts.outputFormat != "" {
		outputFormat = opts.outputFormat
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		return err
	}

	result, err := analysis.RunConfiguration(logger, *conf)
	if err != nil {
		logger.Error("failed to compare periods",
			zap.String("op", "main.runCompare"),
			zap.String("property", conf.Analysis.Property),
			zap.Error(err),
		)
		return err
	}

	switch outputFormat {
	case constants.OutputFormatCSV:
		return output.CsvFormat(w, result.Report)
	case constants.OutputFormatJSON:
		return output.JSONFormat(w, result)
	default:
		output.PrettyFormat(w, result.Property, result.Report)
		output.PrettyInsights(w, result.Insights, result.Warnings)
		return nil
	}
}
