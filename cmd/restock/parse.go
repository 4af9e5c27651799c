package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/pantryops/restock/internal/common"
	"github.com/pantryops/restock/internal/engine"
	"github.com/pantryops/restock/internal/model"
)

func parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Ingest a purchase export",
		Long: `Parse a retailer purchase export and reconcile it against the
household's tracked items.

Each line runs through the tiered cascade: retailer rules, then the
normalization cache, then the budget-governed language model. Lines no
tier can interpret are queued for review rather than dropped.`,
		Args: cobra.ExactArgs(1),
		RunE: runParse,
	}

	cmd.Flags().String("retailer", "", "retailer the export came from (amazon, costco, ...)")
	cmd.Flags().String("household", "default", "household the purchases belong to")
	cmd.Flags().String("user", "default", "user whose model budget the upload spends")
	_ = cmd.MarkFlagRequired("retailer")

	return cmd
}

func runParse(cmd *cobra.Command, args []string) error {
	retailer, _ := cmd.Flags().GetString("retailer")
	household, _ := cmd.Flags().GetString("household")
	user, _ := cmd.Flags().GetString("user")

	lines, err := readLines(args[0])
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return common.NewUserError(fmt.Sprintf("nothing to parse in %s", args[0]), common.ErrNoLines)
	}

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

	pipe, err := initPipeline(cfg)
	if err != nil {
		return err
	}
	defer pipe.Close()

	if _, err := pipe.cache.Prewarm(ctx); err != nil {
		slog.Warn("cache prewarm failed, continuing cold", "error", err)
	}

	ing := engine.New(pipe.resolver, store, cfg.BatchWorker, slog.Default())
	scope := model.BudgetScope{UserID: user, HouseholdID: household}

	slog.Info("parsing export",
		"file", args[0],
		"retailer", retailer,
		"lines", len(lines))

	result, err := ing.ParseBatch(ctx, lines, retailer, scope)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	printBatchSummary(result)
	return nil
}

func printBatchSummary(result engine.BatchResult) {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	fmt.Fprintln(os.Stdout, headerStyle.Render("Ingestion summary"))
	fmt.Fprintf(os.Stdout, "  parsed:     %d\n", len(result.Candidates))
	fmt.Fprintf(os.Stdout, "  merged:     %d\n", result.Merged)
	fmt.Fprintf(os.Stdout, "  created:    %d\n", result.Created)
	fmt.Fprintf(os.Stdout, "  for review: %d\n", result.Queued)
	if result.Duplicates > 0 {
		fmt.Fprintln(os.Stdout, dimStyle.Render(fmt.Sprintf("  duplicates skipped: %d", result.Duplicates)))
	}

	byMethod := make(map[model.ResolutionMethod]int)
	for _, c := range result.Candidates {
		byMethod[c.Method]++
	}
	fmt.Fprintln(os.Stdout, dimStyle.Render(fmt.Sprintf(
		"  tiers: %d rule / %d cache / %d model / %d fallback",
		byMethod[model.MethodRule],
		byMethod[model.MethodCache],
		byMethod[model.MethodModel],
		byMethod[model.MethodFallback])))
}
