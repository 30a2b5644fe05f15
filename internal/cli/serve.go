package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"naskahlokal/internal/document/service"
	"naskahlokal/pkg/logger"
	"naskahlokal/router"
	"naskahlokal/socket"
)

const shutdownTimeout = 10 * time.Second

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		addr     string
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:          "serve",
		Short:        "Serve the REST API and the editing websocket",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rootOpts.Config
			if cmd.Flags().Changed("addr") {
				cfg.ListenAddr = addr
			}
			if cmd.Flags().Changed("debounce") && debounce > 0 {
				cfg.SaveDebounce = debounce
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			s := openStores(rootOpts)
			defer s.close()
			// fail fast on a bad database instead of on the first page load
			if _, err := s.handle.Open(ctx); err != nil {
				return err
			}

			hub := socket.NewHub(s.docs, s.prefs, cfg.SaveDebounce)
			go hub.Run()
			defer hub.Stop()

			srv := &http.Server{
				Addr:    cfg.ListenAddr,
				Handler: router.Setup(service.NewDocumentService(s.docs, hub), s.prefs, hub, cfg.AuthSecret),
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Sugar.Infof("naskahlokal listening on %s", cfg.ListenAddr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			logger.Sugar.Info("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().DurationVar(&debounce, "debounce", 1500*time.Millisecond, "quiet period before an edit is saved")
	return cmd
}
