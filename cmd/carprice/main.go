// Command carprice trains the car price model on the configured table,
// prints its test metrics and predicts prices for the configured samples.
//
// The configuration is read from carprice.yaml in the working directory.
// Without the file the built-in defaults apply.
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/carprice/config"
	"github.com/YuminosukeSato/carprice/dataset"
	"github.com/YuminosukeSato/carprice/pkg/errors"
	"github.com/YuminosukeSato/carprice/pkg/log"
	"github.com/YuminosukeSato/carprice/preprocessing"
	"github.com/YuminosukeSato/carprice/pricing"
	"github.com/YuminosukeSato/carprice/report"
)

func main() {
	if err := run(config.FileName, os.Stdout, os.Stderr); err != nil {
		log.GetLoggerWithName("carprice").Error("run failed", err)
		os.Exit(1)
	}
}

func run(cfgPath string, stdout, stderr io.Writer) error {
	cfg, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		return err
	}
	if err := log.SetupLogger(stderr, cfg.Logging.Level); err != nil {
		return err
	}

	loadOpts, err := cfg.LoadOptions()
	if err != nil {
		return err
	}
	data, err := pricing.LoadData(cfg.Data.Path, loadOpts...)
	if err != nil {
		return err
	}

	preOpts := []pricing.PreprocessOption{pricing.WithTarget(cfg.Data.Target)}
	if cfg.Model.NumericScaler == "minmax" {
		preOpts = append(preOpts, pricing.WithNumericEncoder(preprocessing.MinMax{}))
	}
	pre, err := pricing.PreprocessData(data, preOpts...)
	if err != nil {
		return err
	}

	res, err := pricing.TrainModel(pre.X, pre.Y, pre.Plan,
		pricing.WithTestSize(cfg.Model.TestSize),
		pricing.WithRandomState(cfg.Model.RandomState),
		pricing.WithNEstimators(cfg.Model.NEstimators),
		pricing.WithMaxDepth(cfg.Model.MaxDepth),
		pricing.WithMaxFeatures(cfg.Model.MaxFeatures),
		pricing.WithNJobs(cfg.Model.NJobs),
		pricing.WithReport(stdout),
	)
	if err != nil {
		return err
	}

	if cfg.Output.PlotPath != "" {
		if err := report.PredictedVsActual(res.YTest, res.YPred, cfg.Output.PlotPath); err != nil {
			return err
		}
	}

	if len(cfg.Samples) == 0 {
		return nil
	}
	newData, err := dataset.FromRecords(cfg.Samples, pre.X.Schema())
	if err != nil {
		return errors.Wrap(err, "carprice: samples")
	}
	preds, err := pricing.PredictPrice(res.Pipeline, newData)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(stdout, "Predicted Prices: %s\n", formatPrices(preds)); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

func formatPrices(preds []float64) string {
	parts := make([]string, len(preds))
	for i, p := range preds {
		parts[i] = strconv.FormatFloat(p, 'f', 2, 64)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
