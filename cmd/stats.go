package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/abhisek/calcbot/internal/store"
	"github.com/abhisek/calcbot/internal/ui/theme"
)

var statsCmd = &cobra.Command{
	Use:   "stats <user-id>",
	Short: "Show a user's answer statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid user id %q", args[0])
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		st, err := s.Users().UserStats(context.Background(), id)
		if errors.Is(err, store.ErrNotFound) {
			fmt.Println("No statistics recorded for that user.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("get stats: %w", err)
		}

		fmt.Println(theme.Title.Render("Stats for " + displayUser(*st)))
		fmt.Println(theme.Field("Correct", strconv.Itoa(st.Correct)))
		fmt.Println(theme.Field("Answered", strconv.Itoa(st.Total)))
		fmt.Println(theme.Field("Accuracy", fmt.Sprintf("%.1f%%", st.Accuracy()*100)))
		fmt.Println(theme.Field("Since", st.RegisteredAt.Local().Format("2006-01-02")))
		return nil
	},
}

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show the users with the most correct answers",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		top, err := s.Users().Leaderboard(context.Background(), limit)
		if err != nil {
			return fmt.Errorf("leaderboard: %w", err)
		}
		if len(top) == 0 {
			fmt.Println("Nobody has answered a question yet.")
			return nil
		}

		t := theme.Table("Rank", "User", "Correct", "Answered", "Accuracy")
		for i, u := range top {
			t.Row(strconv.Itoa(i+1), displayUser(u), strconv.Itoa(u.Correct), strconv.Itoa(u.Total),
				fmt.Sprintf("%.0f%%", u.Accuracy()*100))
		}
		fmt.Println(t.Render())
		return nil
	},
}

func displayUser(u store.UserStats) string {
	if u.Username != "" {
		return u.Username
	}
	return strconv.FormatInt(u.UserID, 10)
}

func init() {
	leaderboardCmd.Flags().IntP("limit", "n", 10, "Number of users to show")
}
