package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/calcbot/internal/store"
	"github.com/abhisek/calcbot/internal/ui/theme"
)

var questionsCmd = &cobra.Command{
	Use:     "questions",
	Aliases: []string{"q"},
	Short:   "Inspect and manage the question bank",
}

var questionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recently generated questions",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		unit, _ := cmd.Flags().GetInt("unit")
		skill, _ := cmd.Flags().GetString("skill")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := context.Background()
		qs, err := s.Questions().RecentQuestions(ctx, limit, store.QuestionFilter{Unit: unit, SkillID: skill})
		if err != nil {
			return fmt.Errorf("list questions: %w", err)
		}
		total, err := s.Questions().CountQuestions(ctx)
		if err != nil {
			return fmt.Errorf("count questions: %w", err)
		}
		if len(qs) == 0 {
			fmt.Println("No questions found.")
			return nil
		}

		t := theme.Table("ID", "Unit", "Skill", "Type", "Difficulty", "Enabled", "Question")
		for _, q := range qs {
			t.Row(q.ID, strconv.Itoa(q.Unit), q.SkillID, string(q.Kind), string(q.Difficulty),
				theme.Mark(!q.Disabled), truncate(q.Snippet, 48))
		}
		fmt.Println(t.Render())
		fmt.Println(theme.Hint.Render(fmt.Sprintf("Showing %d of %d questions.", len(qs), total)))
		return nil
	},
}

var questionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a question with its answer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		q, err := s.Questions().GetQuestion(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("get question: %w", err)
		}

		fmt.Println(theme.Title.Render("Question " + q.ID))
		fmt.Println()
		fmt.Println(q.Text)
		for i, opt := range q.Options {
			fmt.Printf("  %c. %s\n", 'A'+i, opt)
		}
		fmt.Println(theme.Section.Render("Details"))
		fmt.Println(theme.Field("Unit", strconv.Itoa(q.Unit)))
		fmt.Println(theme.Field("Skill", q.SkillID))
		fmt.Println(theme.Field("Type", string(q.Kind)))
		fmt.Println(theme.Field("Difficulty", string(q.Difficulty)))
		fmt.Println(theme.Field("Calculator", strconv.FormatBool(q.Calculator)))
		fmt.Println(theme.Field("Enabled", theme.Mark(!q.Disabled)))
		fmt.Println(theme.Field("Generated", q.GeneratedAt.Local().Format("2006-01-02 15:04:05")))
		fmt.Println(theme.Section.Render("Answer"))
		fmt.Println(q.CorrectAnswer)
		fmt.Println(theme.Section.Render("Explanation"))
		fmt.Println(q.Explanation)
		return nil
	},
}

func setDisabledCmd(use, short string, disabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Questions().SetDisabled(context.Background(), args[0], disabled); err != nil {
				return err
			}
			fmt.Printf("Question %s %sd.\n", args[0], use)
			return nil
		},
	}
}

var questionsDeleteAllCmd = &cobra.Command{
	Use:   "delete-all",
	Short: "Delete every question and its reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes && !confirm("Delete every question in the bank?") {
			return errors.New("aborted")
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		n, err := s.Questions().DeleteAllQuestions(context.Background())
		if err != nil {
			return fmt.Errorf("delete questions: %w", err)
		}
		fmt.Printf("Deleted %d questions.\n", n)
		return nil
	},
}

func confirm(prompt string) bool {
	fmt.Print(theme.Warning.Render(prompt) + " [y/N] ")
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

func init() {
	questionsListCmd.Flags().IntP("limit", "n", 20, "Number of questions to show")
	questionsListCmd.Flags().IntP("unit", "u", 0, "Filter by unit")
	questionsListCmd.Flags().StringP("skill", "s", "", "Filter by skill id (e.g. 2.3)")
	questionsDeleteAllCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")

	questionsCmd.AddCommand(questionsListCmd)
	questionsCmd.AddCommand(questionsShowCmd)
	questionsCmd.AddCommand(setDisabledCmd("disable", "Exclude a question from quizzes", true))
	questionsCmd.AddCommand(setDisabledCmd("enable", "Include a disabled question in quizzes again", false))
	questionsCmd.AddCommand(questionsDeleteAllCmd)
}
