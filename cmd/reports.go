package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/abhisek/calcbot/internal/ui/theme"
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Review user reports about questions",
}

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List open reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		reports, err := s.Reports().ActiveReports(context.Background())
		if err != nil {
			return fmt.Errorf("list reports: %w", err)
		}
		if len(reports) == 0 {
			fmt.Println("No open reports.")
			return nil
		}

		t := theme.Table("Question", "User", "Reported", "Reason", "Text")
		for _, r := range reports {
			t.Row(r.QuestionID, strconv.FormatInt(r.UserID, 10), r.ReportedAt.Local().Format("2006-01-02 15:04"),
				truncate(r.Reason, 40), truncate(r.QuestionText, 40))
		}
		fmt.Println(t.Render())
		return nil
	},
}

var reportsClearCmd = &cobra.Command{
	Use:   "clear <question-id>",
	Short: "Clear every report of a question",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		n, err := s.Reports().ClearReports(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("clear reports: %w", err)
		}
		fmt.Printf("Cleared %d report(s) for %s.\n", n, args[0])
		return nil
	},
}

func init() {
	reportsCmd.AddCommand(reportsListCmd)
	reportsCmd.AddCommand(reportsClearCmd)
}
