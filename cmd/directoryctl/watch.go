package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dalemusser/directory/internal/app/system/livereload"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func watchCmd(log func() *zap.Logger) *cobra.Command {
	var (
		addr     string
		debounce time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Serve /livereload events for changes under dir",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), args[0], addr, debounce, log())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:35729", "listen address")
	cmd.Flags().DurationVar(&debounce, "debounce", livereload.DefaultDebounce, "quiet period before a reload is sent")
	return cmd
}

// runWatch serves the broker and runs the watcher until ctx ends or
// either of them fails.
func runWatch(ctx context.Context, dir, addr string, debounce time.Duration, logger *zap.Logger) error {
	broker := livereload.NewBroker(logger)
	mux := http.NewServeMux()
	mux.Handle("/livereload", broker)

	g, ctx := errgroup.WithContext(ctx)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		// Open event streams end with ctx so Shutdown does not wait on them.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	g.Go(func() error {
		logger.Info("livereload listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		w := &livereload.Watcher{
			Dir:      dir,
			Debounce: debounce,
			OnChange: func() {
				logger.Info("change detected", zap.Int("clients", broker.Clients()))
				broker.Notify()
			},
			Log: logger,
		}
		return w.Run(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
