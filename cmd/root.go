package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/calcbot/internal/config"
	"github.com/abhisek/calcbot/internal/logger"
	"github.com/abhisek/calcbot/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "calcbot",
	Short: "AP Calculus quiz bot for Telegram",
	Long: "calcbot runs AP Calculus BC quizzes in Telegram chats, generates questions\n" +
		"with an LLM and grades free-response answers. The subcommands manage the\n" +
		"question bank offline.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides CALCBOT_DB env var)")
	rootCmd.PersistentFlags().String("env-file", ".env", "Path to a .env file to load")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(populateCmd)
	rootCmd.AddCommand(questionsCmd)
	rootCmd.AddCommand(reportsCmd)
	rootCmd.AddCommand(skillsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the .env file named by --env-file and the environment.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.Load(envFile)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then the configured CALCBOT_DB path, then the default XDG path.
func resolveDBPath(cmd *cobra.Command, cfg config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg.DBPath != "" {
		return cfg.DBPath, store.EnsureDir(cfg.DBPath)
	}
	return store.DefaultDBPath()
}

// openStore opens the database for commands that need nothing else from
// the configuration. The .env file is still read so CALCBOT_DB set there
// applies.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return openConfiguredStore(cmd, cfg)
}

func openConfiguredStore(cmd *cobra.Command, cfg config.Config) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd, cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

func newLogger(cfg config.Config) (*logger.Logger, error) {
	log, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log, nil
}
