package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "trello-agent",
	Short: "Name-based Trello and Google Calendar actions for a conversational agent",
	Long: `trello-agent resolves human-readable board, list, card and member names to
Trello ids and runs the agent's actions against Trello and Google Calendar.

Running it without a subcommand starts the HTTP action server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Keep stdout clean for commands that print results.
		output := "stderr"
		if cmd == cmd.Root() || cmd == serveCmd {
			output = "stdout"
		}
		if err := setupLogger(output); err != nil {
			return err
		}
		return loadConfig()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./config.toml)")
}

func setupLogger(output string) error {
	levelStr := strings.ToLower(os.Getenv("LOG_LEVEL"))
	if levelStr == "" {
		levelStr = "debug"
	}
	level, err := zapcore.ParseLevel(levelStr)
	if err != nil {
		level = zapcore.InfoLevel
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      true,
		Encoding:         "console",
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{output},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := config.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return nil
}

func loadConfig() error {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("database.path", "agent.db")
	viper.SetDefault("cache.backend", "memory")
	viper.SetDefault("cache.ttl", time.Duration(0))
	viper.SetDefault("cache.refresh_on_miss", true)
	viper.SetDefault("cache.redis.addr", "localhost:6379")
	viper.SetDefault("tasks.delimiter", ".")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("toml")
		viper.AddConfigPath(".")
	}

	// TRELLO_AGENT_TRELLO_API_KEY overrides trello.api_key, and so on.
	viper.SetEnvPrefix("trello_agent")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		zap.L().Warn("No config file found, using defaults and environment")
		return nil
	}
	zap.L().Debug("Loaded config", zap.String("file", viper.ConfigFileUsed()))
	return nil
}
