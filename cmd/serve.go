package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/calcbot/internal/bot"
	"github.com/abhisek/calcbot/internal/grader"
	"github.com/abhisek/calcbot/internal/llm"
	"github.com/abhisek/calcbot/internal/metrics"
	"github.com/abhisek/calcbot/internal/questiongen"
	"github.com/abhisek/calcbot/internal/quiz"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(true); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
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

	m := metrics.New()
	provider, err := llm.NewProvider(ctx, cfg.LLM, st.EventRepo(), log, llm.WithObserver(m.ObserveLLM))
	if err != nil {
		return fmt.Errorf("create LLM provider: %w", err)
	}

	genCfg := questiongen.DefaultConfig()
	genCfg.Temperature = cfg.LLM.Generation.Temperature
	genCfg.MaxTokens = cfg.LLM.Generation.MaxTokens
	generator := questiongen.New(provider, genCfg, log)
	g := grader.New(provider, cfg.LLM.Generation.GradingTemperature, cfg.LLM.Generation.MaxTokens)

	engine := quiz.NewEngine(g, st.Users(),
		quiz.WithRefiller(st.Questions()),
		quiz.WithLogger(log),
	)
	m.TrackActiveSessions(engine.Active)

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return fmt.Errorf("connect to Telegram: %w", err)
	}
	log.Info("authorized on Telegram", "bot", api.Self.UserName, "provider", cfg.LLM.Provider, "model", provider.ModelID())

	b := bot.New(api, bot.Deps{
		Questions: st.Questions(),
		Users:     st.Users(),
		Reports:   st.Reports(),
		Engine:    engine,
		Generator: generator,
		Metrics:   m,
		Log:       log,
		Config:    cfg,
	})

	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		return b.Run(gctx, api)
	})
	grp.Go(func() error {
		return engine.RunSweeper(gctx, cfg.Quiz.SweepInterval, cfg.Quiz.IdleTimeout, func(e quiz.Expired) {
			b.QuizExpired(gctx, e)
		})
	})
	if cfg.MetricsAddr != "" {
		grp.Go(func() error {
			log.Info("serving metrics", "addr", cfg.MetricsAddr)
			return m.Serve(gctx, cfg.MetricsAddr)
		})
	}

	if err := grp.Wait(); err != nil {
		return err
	}
	log.Info("shutdown complete")
	return nil
}
