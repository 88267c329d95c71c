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
	"golang.org/x/sync/errgroup"

	"github.com/kalambet/prefs/internal/api"
	"github.com/kalambet/prefs/internal/config"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the settings store over HTTP on localhost",
	Long: `Serve the settings store over HTTP on 127.0.0.1.

Requests must carry "Authorization: Bearer <token>". The token comes from
PREFS_SERVER_TOKEN or the platform secret store and is generated on first
use; --print-token shows it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		printToken, _ := cmd.Flags().GetBool("print-token")

		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.close()

		token := s.cfg.Server.Token
		if token == "" {
			if token, err = ensureToken(); err != nil {
				return fmt.Errorf("initializing server token: %w", err)
			}
		}
		if printToken {
			fmt.Fprintln(cmd.OutOrStdout(), token)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", s.cfg.Server.Port))
		if err != nil {
			return fmt.Errorf("listening: %w", err)
		}

		handler := api.NewHandler(api.Deps{
			Store:  s.store,
			Codec:  s.codec,
			Token:  token,
			Logger: slog.Default(),
		})
		return runServer(ctx, ln, handler)
	},
}

// ensureToken is swapped out by tests.
var ensureToken = config.EnsureToken

func init() {
	serveCmd.Flags().Bool("print-token", false, "print the bearer token to stdout before serving")
}

// runServer serves handler on ln until ctx is done, then shuts down
// gracefully.
func runServer(ctx context.Context, ln net.Listener, handler http.Handler) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("prefs listening", "addr", ln.Addr().String(), "version", version)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		fmt.Fprintln(os.Stderr, "shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
