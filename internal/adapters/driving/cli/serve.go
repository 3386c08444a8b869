package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexchat/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/lexchat/internal/adapters/driving/watcher"
	"github.com/custodia-labs/lexchat/internal/logger"
)

var serveWatch bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and WebSocket API server",
	Long: `Starts the API server: account registration and login, chat
management, document upload and a WebSocket endpoint for live
conversation turns. With --watch, files dropped into the inbox
directory are ingested automatically.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "ingest files dropped into the inbox directory")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := initApp(true)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.initUsers(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := httpapi.NewServer(httpapi.Config{Addr: a.cfg.Server.Addr}, a.users, a.chats, a.knowledge)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening on %s", a.cfg.Server.Addr)
		errCh <- srv.Start()
	}()

	if serveWatch || a.cfg.Watch.Enabled {
		w, err := watcher.New(a.cfg.Watch.Dir, a.knowledge)
		if err != nil {
			return fmt.Errorf("starting watcher: %w", err)
		}
		go func() {
			logger.Info("watching %s for documents", a.cfg.Watch.Dir)
			if err := w.Run(ctx); err != nil {
				logger.Warn("watcher stopped: %v", err)
			}
		}()
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
