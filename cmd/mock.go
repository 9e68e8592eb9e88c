package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/leisambientais/leischat/internal/backend"
	"github.com/leisambientais/leischat/internal/mockapi"
)

var (
	mockPort  int
	mockUsers []string
	mockSeed  []string
)

var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Run an in-memory fake backend for local development",
	Long: `Serves the legislation assistant API from memory: chat endpoints for every
variant, conversation history, uploads, login, table generation and export.
Point backend_url at it to try the UI without the real service.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		api := mockapi.New()
		for _, u := range mockUsers {
			email, password, ok := strings.Cut(u, ":")
			if !ok {
				return fmt.Errorf("invalid --user %q, want email:password", u)
			}
			api.AddUser(email, password)
		}
		for _, s := range mockSeed {
			userID, title, ok := strings.Cut(s, ":")
			if !ok {
				return fmt.Errorf("invalid --seed %q, want user:title", s)
			}
			id := api.Seed(userID, title,
				backend.Message{Role: "user", Content: title},
				backend.Message{Role: "assistant", Content: "Recebido: " + title},
			)
			fmt.Fprintf(os.Stderr, "  seeded %s for %s\n", id, userID)
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", mockPort),
			Handler:           api.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		go func() {
			<-ctx.Done()
			srv.Shutdown(context.Background())
		}()

		fmt.Fprintf(os.Stderr, "leischat mock backend listening on :%d\n", mockPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	mockCmd.Flags().IntVar(&mockPort, "port", 8000, "Port to listen on")
	mockCmd.Flags().StringArrayVar(&mockUsers, "user", nil, "Accepted login as email:password (repeatable)")
	mockCmd.Flags().StringArrayVar(&mockSeed, "seed", nil, "Seed a conversation as user:title (repeatable)")
	rootCmd.AddCommand(mockCmd)
}
