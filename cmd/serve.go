package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/chxlky/trello-agent/api"
	"github.com/chxlky/trello-agent/database"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP action server",
	Long: `Start the HTTP action server. Actions are invoked with POST /api/actions/:name.
When trello.callback_url and trello.board_ids are set, a Trello webhook is
registered per board so board changes invalidate the cached board index.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.RunE = runServe
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := zap.L()

	db := database.Init(viper.GetString("database.path"))
	a, err := buildApp(context.Background(), db)
	if err != nil {
		return err
	}

	if !logger.Core().Enabled(zap.DebugLevel) {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(logger, true))

	apiHandler := &api.Handler{
		Pipeline: a.pipeline,
		Runs:     a.journal,
		Logger:   logger.Named("api"),
	}
	apiHandler.Register(router.Group("/api"))

	port := viper.GetString("server.port")
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	logger.Info("Starting server", zap.String("port", port))
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	webhookIDs := registerWebhooks(a)

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	var once sync.Once

	cleanup := func(reason string) {
		logger.Info("Shutdown initiated", zap.String("reason", reason))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		logger.Info("Shutting down HTTP server...")
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Error shutting down server", zap.Error(err))
		} else {
			logger.Info("HTTP server shut down gracefully.")
		}

		for boardID, webhookID := range webhookIDs {
			if err := a.trello.DeleteWebhook(ctx, webhookID); err != nil {
				logger.Error("Error deleting webhook for board", zap.String("boardID", boardID), zap.Error(err))
			}
		}

		a.Close()
		close(done)
	}

	go func() {
		sig := <-sigCh
		once.Do(func() {
			cleanup(sig.String())
		})

		// a second signal exits immediately
		go func() {
			<-sigCh
			logger.Info("Second interrupt signal received. Exiting immediately.")
			os.Exit(1)
		}()
	}()

	<-done
	logger.Info("Exiting...")
	return nil
}

// registerWebhooks subscribes to board events for every configured board.
// Failures are logged; the board cache then relies on its TTL and
// refresh-on-miss.
func registerWebhooks(a *app) map[string]string {
	logger := zap.L()
	webhookIDs := make(map[string]string)

	boardIDs := viper.GetStringSlice("trello.board_ids")
	if len(boardIDs) == 0 || a.trello.CallbackURL == "" {
		logger.Info("Trello webhooks not configured; skipping registration")
		return webhookIDs
	}

	// Trello sends a HEAD request to the callback URL during registration, so give the
	// server a moment to start.
	time.Sleep(250 * time.Millisecond)

	logger.Info("Registering Trello webhook for boards", zap.Strings("boardIDs", boardIDs))
	for _, boardID := range boardIDs {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		webhookID, err := a.trello.RegisterWebhook(ctx, boardID)
		cancel()
		if err != nil {
			logger.Error("Failed to register webhook for board", zap.String("boardID", boardID), zap.Error(err))
			continue
		}
		webhookIDs[boardID] = webhookID
	}
	return webhookIDs
}
