package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ammiranda/repose/handlers"
	"github.com/ammiranda/repose/storage"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the collection API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.withStorage(cmd, func(_ context.Context, s *storage.Storage) error {
				return a.serve(ctx, s)
			})
		},
	}
	cmd.Flags().String("addr", ":8080", "address to listen on")
	a.bind("HTTP_ADDR", cmd.Flags().Lookup("addr"))
	return cmd
}

// serve runs the API until ctx is cancelled, then drains in-flight requests
func (a *app) serve(ctx context.Context, s *storage.Storage) error {
	gin.SetMode(gin.ReleaseMode)
	log := a.log.Named("http")

	listener, err := net.Listen("tcp", a.v.GetString("HTTP_ADDR"))
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           handlers.NewRouter(s, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()
	log.Info("listening", zap.String("addr", listener.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
