package cmd

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

	"github.com/leisambientais/leischat/internal/dashboard"
	"github.com/leisambientais/leischat/internal/db"
	"github.com/leisambientais/leischat/internal/prefs"
	"github.com/leisambientais/leischat/internal/server"
)

var (
	servePort     int
	serveAllowAll bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web UI server",
	Long: `Starts the server for the chat (/dashboard), login (/) and table generator
(/tabelas) pages. Each open page talks to the server over a websocket; the
server calls the configured backend.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		database, err := db.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		store := prefs.NewStore(database)
		chat := cfg.ChatSettings()

		srv := server.New(server.Config{
			Port:           port,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			AllowAll:       serveAllowAll,
		}, database)

		dash := dashboard.New(newBackendClient(cfg), store, dashboard.Options{
			Title: chat.Title,
			Chat:  chatOptions(cfg, cfg.UserID, store),
		})
		dash.RegisterRoutes(srv.Router())

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		fmt.Fprintf(os.Stderr, "leischat server v%s starting on port %d\n", Version, port)
		fmt.Fprintf(os.Stderr, "  Backend: %s (variant %s, %s)\n", cfg.BackendURL, cfg.Variant, chat.Path)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", database.Path())

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on (overrides server.port)")
	serveCmd.Flags().BoolVar(&serveAllowAll, "allow-all-origins", false, "Allow cross-origin requests from any origin")
	rootCmd.AddCommand(serveCmd)
}
