package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"quantbot-go/internal/features"
	"quantbot-go/internal/ml"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the signal classifier on labeled history",
	Long: `Build the indicator feature matrix from cached or CSV history,
label each row by forward return, and fit the random-forest classifier.
Held-out metrics are logged; the fitted model then classifies the most
recent bar.`,
	RunE: runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	if !cfg.Model.Enabled {
		return fmt.Errorf("model is disabled in configuration")
	}

	bars, err := loadHistory(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	rows, labels, err := features.LabeledMatrix(bars, cfg.Model.Horizon, cfg.Model.ReturnThreshold)
	if err != nil {
		return fmt.Errorf("build training set: %w", err)
	}
	log.Info().
		Int("rows", len(rows)).
		Int("features", len(features.Columns)).
		Msg("training set built")

	model, err := ml.NewSignalModel(cfg.Model.Hyperparams, log)
	if err != nil {
		return err
	}
	x := make([][]float64, len(rows))
	for i, row := range rows {
		x[i] = row.Values
	}
	if err := model.Fit(x, labels); err != nil {
		return fmt.Errorf("fit model: %w", err)
	}

	pred, err := model.Predict(x[len(x)-1])
	if err != nil {
		return fmt.Errorf("predict: %w", err)
	}
	fmt.Printf("latest_bar_class=%s probability=%.3f\n", pred.Class, pred.Probability)
	return nil
}
