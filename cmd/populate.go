package cmd

import (
	"fmt"
	"math/rand/v2"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhisek/calcbot/internal/curriculum"
	"github.com/abhisek/calcbot/internal/llm"
	"github.com/abhisek/calcbot/internal/questiongen"
	"github.com/abhisek/calcbot/internal/ui/theme"
)

var populateCmd = &cobra.Command{
	Use:   "populate",
	Short: "Generate questions for a unit and add them to the bank",
	RunE: func(cmd *cobra.Command, args []string) error {
		unit, _ := cmd.Flags().GetInt("unit")
		count, _ := cmd.Flags().GetInt("count")
		if _, err := curriculum.GetUnit(unit); err != nil {
			return fmt.Errorf("unit %d: %w", unit, err)
		}
		if count <= 0 {
			return fmt.Errorf("count must be positive, got %d", count)
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := cfg.LLM.Validate(); err != nil {
			return fmt.Errorf("invalid LLM configuration: %w", err)
		}
		log, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openConfiguredStore(cmd, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		provider, err := llm.NewProvider(ctx, cfg.LLM, st.EventRepo(), log)
		if err != nil {
			return fmt.Errorf("create LLM provider: %w", err)
		}
		genCfg := questiongen.DefaultConfig()
		genCfg.Temperature = cfg.LLM.Generation.Temperature
		genCfg.MaxTokens = cfg.LLM.Generation.MaxTokens
		gen := questiongen.New(provider, genCfg, log)

		fmt.Println(theme.Title.Render(fmt.Sprintf("Generating %d questions for Unit %d", count, unit)))
		rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		res, err := questiongen.Populate(ctx, gen, st.Questions(), unit, count, rng,
			func(done, total int, _ questiongen.PopulateResult, err error) {
				if err != nil {
					fmt.Printf("  [%d/%d] %s %s\n", done, total, theme.Mark(false), err)
					return
				}
				fmt.Printf("  [%d/%d] %s\n", done, total, theme.Mark(true))
			})
		fmt.Printf("\nAdded %d questions (%d duplicates, %d failed).\n", res.Created, res.Duplicates, res.Failed)
		return err
	},
}

func init() {
	populateCmd.Flags().IntP("unit", "u", 1, "Unit number to generate questions for")
	populateCmd.Flags().IntP("count", "n", 5, "Number of questions to generate")
}
