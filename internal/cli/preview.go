package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/excalift/excalift/pkg/excalidraw"
	"github.com/excalift/excalift/pkg/render"
)

// previewCommand creates the preview command rendering a converted document
// as a connectivity graph.
func (c *CLI) previewCommand() *cobra.Command {
	var (
		output string
		format string
	)

	cmd := &cobra.Command{
		Use:   "preview <file>",
		Short: "Render a converted document as a connectivity graph",
		Long: `Render an .excalidraw document as a Graphviz graph of its shapes and
arrows. Useful for eyeballing whether a conversion preserved the
diagram's structure without opening Excalidraw.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var doc excalidraw.Document
			if err := json.Unmarshal(data, &doc); err != nil {
				return fmt.Errorf("parsing %s: %w", args[0], err)
			}

			dot := render.ToDOT(&doc)

			var out []byte
			switch format {
			case "dot":
				out = []byte(dot)
			case "svg":
				out, err = render.SVG(ctx, dot)
			case "png":
				out, err = render.PNG(ctx, dot)
			default:
				return fmt.Errorf("unknown format %q (want svg, png or dot)", format)
			}
			if err != nil {
				return fmt.Errorf("rendering: %w", err)
			}

			dest := output
			if dest == "" {
				base := strings.TrimSuffix(args[0], filepath.Ext(args[0]))
				dest = base + "." + format
			}
			if err := os.WriteFile(dest, out, 0o644); err != nil {
				return err
			}

			printSuccess("Preview rendered")
			printFile(dest)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: input with new extension)")
	cmd.Flags().StringVarP(&format, "format", "f", "svg", "output format: svg, png or dot")
	return cmd
}
