package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagarc03/shelf"
	"github.com/sagarc03/shelf/config"
	"github.com/sagarc03/shelf/database"
	"github.com/sagarc03/shelf/filesystem"
	shelfhttp "github.com/sagarc03/shelf/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the shelf HTTP server.

The storage directory is created if it does not exist. When a journal
backend is configured its schema is migrated before the server starts.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 5708, "HTTP server port (env: SHELF_SERVER_PORT)")
	serveCmd.Flags().Int64("max-upload-size", 0, "maximum upload size in bytes, 0 for unlimited (env: SHELF_SERVER_MAX_UPLOAD_SIZE)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	serviceCfg := shelf.ServiceConfig{}
	if cfg.Journal.Enabled() {
		db, err := database.Open(ctx, cfg.Journal)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer func() { _ = db.Close() }()

		serviceCfg.Journal = db.GetJournal()
		slog.Info("journal enabled", "type", cfg.Journal.Type, "table", cfg.Journal.Table)
	}

	root, err := openStorageRoot(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer func() { _ = root.Close() }()

	service, err := shelf.NewStorageService(filesystem.NewFileStorage(root), serviceCfg)
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}

	handlerConfig := cfg.Handler()
	handler := shelfhttp.NewHandler(&handlerConfig, service)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	server := &http.Server{
		Addr:              addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	slog.Info("starting server", "addr", addr, "storage", cfg.Storage.Path, "max_upload_size", cfg.Server.MaxUploadSize)
	return runHTTPServer(ctx, server, ln, 30*time.Second)
}

// runHTTPServer serves on ln until ctx is done or SIGINT/SIGTERM arrives.
// It returns only once Shutdown has drained in-flight requests or timed out,
// so the storage root and journal stay open for them.
func runHTTPServer(ctx context.Context, server *http.Server, ln net.Listener, shutdownTimeout time.Duration) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()

		slog.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
	}()

	err := server.Serve(ln)
	stop()
	<-shutdownDone

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// openStorageRoot creates the storage directory if needed and opens it as an *os.Root.
func openStorageRoot(path string) (*os.Root, error) {
	if err := os.MkdirAll(path, 0o750); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	root, err := os.OpenRoot(path)
	if err != nil {
		return nil, fmt.Errorf("open storage root: %w", err)
	}
	return root, nil
}
