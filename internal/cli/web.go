package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/excalift/excalift/internal/web"
)

// webCommand creates the web command serving the self-service converter.
func (c *CLI) webCommand() *cobra.Command {
	var (
		addr        string
		mappingFile string
		imagesDir   string
	)

	cmd := &cobra.Command{
		Use:   "web",
		Short: "Serve the browser-based conversion form",
		Long: `Start an HTTP server with a drag-and-drop form: users drop .gliffy files
and get .excalidraw files back, a zip when they drop several at once.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			resolver := c.newResolver(mappingFile, imagesDir)
			srv := &http.Server{
				Addr:              addr,
				Handler:           web.NewServer(resolver, c.Logger).Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				c.Logger.Info("serving", "addr", addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
				return ctx.Err()
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "listen address")
	cmd.Flags().StringVar(&mappingFile, "mapping", "", "shape-image mapping file (default from config)")
	cmd.Flags().StringVar(&imagesDir, "images", "", "directory with mapped shape images (default from config)")
	return cmd
}
