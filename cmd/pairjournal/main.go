package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"pairjournal/internal/assistant"
	"pairjournal/internal/config"
	"pairjournal/internal/gen"
	"pairjournal/internal/journal"
	"pairjournal/internal/server"
	"pairjournal/internal/store"
)

var (
	verbose    bool
	configPath string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "pairjournal",
	Short: "pairjournal - a two-person journal with a grounded assistant",
	Long: `pairjournal is a shared journal for two people with a conversational
assistant. The assistant answers questions grounded in journal history:
it infers who and what time range a question concerns, retrieves matching
entries, and asks Gemini with only that context.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the journal API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		st, err := store.Open(cfg.Store.DatabasePath, logger)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		generator, err := gen.NewGeminiClient(ctx, gen.GeminiConfig{
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.Model,
			Timeout: cfg.LLM.TimeoutDuration(),
		}, logger)
		if err != nil {
			return err
		}

		as := assistant.New(st, generator, cfg.Retrieval, logger, nil)
		srv := server.New(cfg.Server.Addr, st, as, logger)

		errCh := make(chan error, 1)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

var addCmd = &cobra.Command{
	Use:   "add <author> <text>",
	Short: "Add a journal entry for today",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		author, err := journal.ParseAuthor(args[0])
		if err != nil {
			return err
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		st, err := store.Open(cfg.Store.DatabasePath, logger)
		if err != nil {
			return err
		}
		defer st.Close()

		entry := &journal.Entry{
			Author: author,
			Date:   time.Now().Format(journal.DateLayout),
			Text:   args[1],
		}
		if err := st.Save(cmd.Context(), entry); err != nil {
			return err
		}
		fmt.Printf("saved entry %s for %s on %s\n", entry.ID, author.DisplayName(), entry.Date)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list <author>",
	Short: "List an author's recent entries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		author, err := journal.ParseAuthor(args[0])
		if err != nil {
			return err
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		st, err := store.Open(cfg.Store.DatabasePath, logger)
		if err != nil {
			return err
		}
		defer st.Close()

		entries, err := st.ListByAuthor(cmd.Context(), author, 20)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Printf("%s  %s\n", e.Date, e.Text)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "pairjournal.yaml", "path to config file")
	rootCmd.AddCommand(serveCmd, addCmd, listCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
