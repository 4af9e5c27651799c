package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/pantryops/restock/internal/model"
)

func itemsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "List tracked items and their run-out predictions",
		RunE:  runItems,
	}

	cmd.Flags().String("household", "default", "household to list")

	return cmd
}

func runItems(cmd *cobra.Command, _ []string) error {
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

	items, err := store.GetItemsForHousehold(ctx, household)
	if err != nil {
		return fmt.Errorf("failed to load items: %w", err)
	}

	if len(items) == 0 {
		fmt.Fprintf(os.Stdout, "No items tracked for household %q yet.\n", household)
		return nil
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	fmt.Fprintln(os.Stdout, headerStyle.Render(fmt.Sprintf("Tracked items (%s)", household)))

	for _, item := range items {
		fmt.Fprintf(os.Stdout, "  %-30s %-20s %s\n",
			item.Name,
			item.Brand,
			renderRunOut(item))
	}

	return nil
}

func renderRunOut(item model.Item) string {
	if item.PredictedRunOut == nil {
		dim := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
		return dim.Render("(not enough history)")
	}

	days := int(time.Until(*item.PredictedRunOut).Hours() / 24)
	text := fmt.Sprintf("runs out %s (%s)", item.PredictedRunOut.Format("Jan 2"), item.Confidence)

	var style lipgloss.Style
	switch {
	case days < 0:
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
		text = fmt.Sprintf("overdue since %s (%s)", item.PredictedRunOut.Format("Jan 2"), item.Confidence)
	case days <= 7:
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	default:
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	}

	return style.Render(text)
}
