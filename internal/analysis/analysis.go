// Package analysis runs comparisons end to end: validation, the comparison
// engine and commentary, for one property or a batch of them.
package analysis

import (
	"context"
	"fmt"

	"github.com/iwvelando/noi-analyzer/internal/config"
	"github.com/iwvelando/noi-analyzer/pkg/adapters"
	"github.com/iwvelando/noi-analyzer/pkg/constants"
	"github.com/iwvelando/noi-analyzer/pkg/insights"
	"github.com/iwvelando/noi-analyzer/pkg/noi"
	"github.com/iwvelando/noi-analyzer/pkg/validation"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Analysis holds everything produced for one property.
type Analysis struct {
	Property string            `json:"property"`
	Periods  noi.PeriodSet     `json:"periods"`
	Report   noi.Report        `json:"report"`
	Insights insights.Insights `json:"insights"`
	Warnings []string          `json:"warnings"`
}

// Request is one property in a batch.
type Request struct {
	Property string
	Periods  noi.PeriodSet
}

// BatchResult is the outcome of one batch request. Exactly one of Analysis
// and Err is set.
type BatchResult struct {
	Property string    `json:"property"`
	Analysis *Analysis `json:"analysis,omitempty"`
	Error    string    `json:"error,omitempty"`
	Err      error     `json:"-"`
}

// Run validates the periods, compares them and generates commentary. Only a
// missing current period is an error; validation findings are returned as
// warnings.
func Run(logger *zap.Logger, property string, periods noi.PeriodSet) (Analysis, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	result := Analysis{
		Property: property,
		Periods:  periods,
		Warnings: validation.ValidatePeriodSet(periods),
	}
	for _, warning := range result.Warnings {
		logger.Warn(warning,
			zap.String("op", "analysis.Run"),
			zap.String("property", property),
		)
	}

	report, err := noi.Compare(periods)
	if err != nil {
		return result, fmt.Errorf("property %q: %w", property, err)
	}
	result.Report = report
	result.Insights = insights.Generate(property, report, *periods.Current)

	logger.Debug("comparison complete",
		zap.String("op", "analysis.Run"),
		zap.String("property", property),
		zap.Int("baselines", len(report.Baselines())),
		zap.Int("results", len(report.Results)),
	)

	return result, nil
}

// RunConfiguration converts a loaded configuration and runs it. Configuration
// warnings come before record warnings.
func RunConfiguration(logger *zap.Logger, conf config.Configuration) (Analysis, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	configWarnings := conf.ValidateConfiguration()
	for _, warning := range configWarnings {
		logger.Warn(warning, zap.String("op", "analysis.RunConfiguration"))
	}

	periods, err := adapters.PeriodSetFromConfig(conf.Analysis.Periods)
	if err != nil {
		return Analysis{Property: conf.Analysis.Property, Warnings: configWarnings},
			fmt.Errorf("failed to convert configured periods: %w", err)
	}

	result, err := Run(logger, conf.Analysis.Property, periods)
	result.Warnings = append(configWarnings, result.Warnings...)
	return result, err
}

// RunBatch runs every request with at most concurrency comparisons in
// flight. A request that fails on its own is reported in its BatchResult and
// does not stop the batch; cancelling ctx does. Results are in request order.
func RunBatch(ctx context.Context, logger *zap.Logger, requests []Request, concurrency int) ([]BatchResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency <= 0 {
		concurrency = constants.DefaultBatchConcurrency
	}

	results := make([]BatchResult, len(requests))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, req := range requests {
		i, req := i, req // per-iteration copies (pre-Go 1.22 loop semantics)
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i].Property = req.Property
			analysis, err := Run(logger, req.Property, req.Periods)
			if err != nil {
				logger.Warn("batch item failed",
					zap.String("op", "analysis.RunBatch"),
					zap.Int("index", i),
					zap.String("property", req.Property),
					zap.Error(err),
				)
				results[i].Err = err
				results[i].Error = err.Error()
				return nil
			}
			results[i].Analysis = &analysis
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Debug("batch complete",
		zap.String("op", "analysis.RunBatch"),
		zap.Int("items", len(requests)),
		zap.Int("concurrency", concurrency),
	)
	return results, nil
}
