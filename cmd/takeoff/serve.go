package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/steelforge/takeoff/internal/config"
	"github.com/steelforge/takeoff/internal/parser"
	"github.com/steelforge/takeoff/internal/server"
	"github.com/steelforge/takeoff/internal/session"
)

func init() {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the import session HTTP API",
		Long: `Serve the import pipeline over HTTP: upload CAD files to stage import
sessions, preview them, confirm identification mappings, and evict sessions
once the confirmed result has been persisted elsewhere.`,
		RunE: runServe,
	}

	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	settings, err := config.Load()
	if err != nil {
		return err
	}

	store, err := newStore(settings)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	parserSvc := parser.NewService(parser.Options{
		MaxUncompressedBytes: settings.MaxUncompressedBytes,
		MarkRules:            settings.MarkRules,
	})
	sessionSvc := session.NewService(store, settings.SessionTTL)

	srv := &http.Server{
		Addr:              settings.ServerAddr,
		Handler:           server.New(parserSvc, sessionSvc).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	slog.Info("Serving import session API",
		"addr", settings.ServerAddr,
		"session_store", settings.SessionStore,
		"session_ttl", settings.SessionTTL)

	select {
	case <-cmd.Context().Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	}
}

func newStore(settings *config.Settings) (session.Store, error) {
	switch settings.SessionStore {
	case config.StoreSQLite:
		store, err := session.NewSQLiteStore(settings.SessionSQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open session store: %w", err)
		}
		return store, nil
	default:
		return session.NewMemoryStore(), nil
	}
}
