package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/pantryops/restock/internal/model"
	"github.com/pantryops/restock/internal/predict"
)

func predictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Recalculate run-out predictions",
		Long: `Recompute the run-out prediction for every tracked item from its
purchase history. With --household only that household is recalculated;
without it every household is, which is what the daily batch job runs.`,
		RunE: runPredict,
	}

	cmd.Flags().String("household", "", "recalculate a single household")

	return cmd
}

func runPredict(cmd *cobra.Command, _ []string) error {
	household, _ := cmd.Flags().GetString("household")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	store, err := initStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	eng := predict.New(store, cfg.Prediction, slog.Default())

	var stats predict.Stats
	if household != "" {
		stats, err = eng.BatchRecalculate(ctx, household)
		if err != nil {
			return fmt.Errorf("recalculation failed: %w", err)
		}
	} else {
		var bar *progressbar.ProgressBar
		stats, err = eng.RecalculateAll(ctx, func(done, total int) {
			if bar == nil {
				bar = progressbar.NewOptions(total,
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionShowCount(),
					progressbar.OptionSetWidth(40),
					progressbar.OptionSetDescription("Recalculating predictions..."),
				)
			}
			_ = bar.Set(done)
		})
		if err != nil {
			return fmt.Errorf("recalculation failed: %w", err)
		}
		if bar != nil {
			_ = bar.Finish()
			fmt.Fprintln(os.Stderr)
		}
	}

	printPredictionStats(stats)
	return nil
}

func printPredictionStats(stats predict.Stats) {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))

	fmt.Fprintln(os.Stdout, headerStyle.Render("Prediction run"))
	fmt.Fprintf(os.Stdout, "  items processed: %d\n", stats.Processed)
	fmt.Fprintf(os.Stdout, "  predictions updated: %d\n", stats.Updated)
	if stats.Errors > 0 {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
		fmt.Fprintln(os.Stdout, errStyle.Render(fmt.Sprintf("  errors: %d", stats.Errors)))
	}
	for _, level := range []model.ConfidenceLevel{model.ConfidenceHigh, model.ConfidenceMedium, model.ConfidenceLow} {
		if n := stats.ByConfidence[level]; n > 0 {
			fmt.Fprintf(os.Stdout, "  %-6s %d\n", string(level)+":", n)
		}
	}
}
