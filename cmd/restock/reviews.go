package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

func reviewsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reviews",
		Short: "List lines waiting for human review",
		RunE:  runReviews,
	}

	cmd.Flags().String("household", "default", "household whose queue to list")

	return cmd
}

func runReviews(cmd *cobra.Command, _ []string) error {
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

	reviews, err := store.GetPendingReviews(ctx, household)
	if err != nil {
		return fmt.Errorf("failed to load review queue: %w", err)
	}

	if len(reviews) == 0 {
		fmt.Fprintln(os.Stdout, "Review queue is empty.")
		return nil
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	fmt.Fprintln(os.Stdout, headerStyle.Render(fmt.Sprintf("Pending reviews (%d)", len(reviews))))

	for _, review := range reviews {
		fmt.Fprintf(os.Stdout, "  %s\n", review.RawText)
		detail := fmt.Sprintf("    %s · %s", review.Retailer, review.Reason)
		if review.SuggestedItemID != "" {
			detail += fmt.Sprintf(" · suggested item %s", review.SuggestedItemID)
		}
		if review.Candidate.Name != "" && review.Candidate.Name != review.RawText {
			detail += fmt.Sprintf(" · parsed as %q", review.Candidate.Name)
		}
		fmt.Fprintln(os.Stdout, dimStyle.Render(detail))
	}

	return nil
}
