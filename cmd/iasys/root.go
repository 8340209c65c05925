package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/petsaude/iasys"
	"github.com/petsaude/iasys/internal/adapters/redis"
	"github.com/petsaude/iasys/internal/config"
	"github.com/petsaude/iasys/internal/groq"
	"github.com/petsaude/iasys/internal/logging"
	"github.com/petsaude/iasys/pkg/ports"
)

var rootCmd = &cobra.Command{
	Use:   "iasys",
	Short: "IASYS is a virtual health assistant for the SUS",
	Long:  `IASYS guides citizens through symptom triage, appointment scheduling and quick health guidance over a deterministic conversation flow.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to the YAML configuration file")
}

// loadConfig reads the config flag and resolves the full configuration.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	return logging.New(level)
}

// newAssistant assembles the assistant from the configuration.
func newAssistant(cfg config.Config, logger *slog.Logger, extra ...iasys.Option) (*iasys.Assistant, error) {
	opts := []iasys.Option{
		iasys.WithLogger(logger),
		iasys.WithQuietWindow(cfg.QuietWindow),
		iasys.WithCollectCeiling(cfg.CollectCeiling),
		iasys.WithAdvanceDelay(cfg.AdvanceDelay),
		iasys.WithMaxSessions(cfg.MaxSessions),
		iasys.WithSessionIdleTTL(cfg.SessionIdleTTL),
		iasys.WithTaskWorkers(cfg.TaskWorkers),
	}

	if cfg.GroqAPIKey != "" {
		groqOpts := []groq.Option{groq.WithLogger(logger)}
		if cfg.GroqModel != "" {
			groqOpts = append(groqOpts, groq.WithModel(cfg.GroqModel))
		}
		completer, err := groq.New(cfg.GroqAPIKey, groqOpts...)
		if err != nil {
			return nil, err
		}
		opts = append(opts, iasys.WithCompleter(completer))
	} else {
		logger.Warn("GROQ_API_KEY not set, analysis states will use their fallback routes")
	}

	if store := newHistoryStore(cfg); store != nil {
		opts = append(opts, iasys.WithHistoryStore(store))
	}

	return iasys.New(append(opts, extra...)...)
}

func newHistoryStore(cfg config.Config) ports.HistoryStore {
	if cfg.RedisAddr == "" {
		return nil // Assistant defaults to the in-memory store.
	}
	return redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB,
		redis.WithTTL(cfg.SessionIdleTTL),
	)
}
