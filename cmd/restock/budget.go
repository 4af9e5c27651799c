package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/pantryops/restock/internal/budget"
	"github.com/pantryops/restock/internal/model"
)

func budgetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Show model spend against the configured ceilings",
		RunE:  runBudget,
	}

	cmd.Flags().String("user", "default", "user whose monthly spend to show")

	return cmd
}

func runBudget(cmd *cobra.Command, _ []string) error {
	user, _ := cmd.Flags().GetString("user")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	kvStore, err := initKV(cfg)
	if err != nil {
		return fmt.Errorf("failed to open kv store: %w", err)
	}
	defer func() { _ = kvStore.Close() }()

	governor := budget.New(kvStore, cfg.Budget, slog.Default())

	userRec, systemRec, err := governor.Usage(cmd.Context(), model.BudgetScope{UserID: user})
	if err != nil {
		return fmt.Errorf("failed to read usage: %w", err)
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))

	fmt.Fprintln(os.Stdout, headerStyle.Render("Model spend"))
	printUsageLine(fmt.Sprintf("user %s (%s)", user, userRec.PeriodKey), userRec, cfg.Budget.UserMonthlyCap)
	printUsageLine(fmt.Sprintf("system (%s)", systemRec.PeriodKey), systemRec, cfg.Budget.SystemDailyCap)

	return nil
}

func printUsageLine(label string, rec model.UsageRecord, ceiling float64) {
	line := fmt.Sprintf("  %-24s $%.4f", label, rec.Cost)
	if ceiling > 0 {
		line += fmt.Sprintf(" / $%.2f", ceiling)
	}
	line += fmt.Sprintf("  (%d calls, %d in / %d out tokens)",
		rec.CallCount, rec.InputTokens, rec.OutputTokens)

	if ceiling > 0 && rec.Cost >= ceiling {
		warn := lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
		line = warn.Render(line + "  CEILING REACHED")
	}

	fmt.Fprintln(os.Stdout, line)
}
