package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/excalift/excalift/pkg/convert"
	"github.com/excalift/excalift/pkg/gliffy"
	"github.com/excalift/excalift/pkg/tidmap"
)

// convertCommand creates the convert command for local .gliffy files.
func (c *CLI) convertCommand() *cobra.Command {
	var (
		outputDir   string
		mappingFile string
		imagesDir   string
	)

	cmd := &cobra.Command{
		Use:   "convert <file>...",
		Short: "Convert local Gliffy files to Excalidraw",
		Long: `Convert .gliffy (or raw Gliffy .json) files to .excalidraw documents.

Each input produces a sibling .excalidraw file, or lands in --output when
given. Shapes with a configured image mapping are embedded as images; see
"excalift config" for the mapping file location.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver := c.newResolver(mappingFile, imagesDir)

			files, err := expandArgs(args)
			if err != nil {
				return err
			}

			prog := newProgress(c.Logger)
			var failed int
			for _, file := range files {
				if err := c.convertFile(file, outputDir, resolver); err != nil {
					printError("%s: %v", file, err)
					failed++
				}
			}
			prog.done(fmt.Sprintf("Converted %d of %d files", len(files)-failed, len(files)))

			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(files))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "directory for converted files (default: next to input)")
	cmd.Flags().StringVar(&mappingFile, "mapping", "", "shape-image mapping file (default from config)")
	cmd.Flags().StringVar(&imagesDir, "images", "", "directory with mapped shape images (default from config)")
	return cmd
}

// newResolver loads the TID mapping, falling back to config values and then
// to a null resolver when no mapping exists.
func (c *CLI) newResolver(mappingFile, imagesDir string) tidmap.Resolver {
	if mappingFile == "" || imagesDir == "" {
		cfg, err := loadConfig()
		if err == nil {
			if mappingFile == "" {
				mappingFile = cfg.TIDMap.MappingFile
			}
			if imagesDir == "" {
				imagesDir = cfg.TIDMap.ImagesDir
			}
		}
	}
	mapper, err := tidmap.Load(mappingFile, imagesDir)
	if err != nil {
		c.Logger.Debug("no shape-image mapping loaded", "file", mappingFile, "err", err)
		return tidmap.Null{}
	}
	return mapper
}

func (c *CLI) convertFile(path, outputDir string, resolver tidmap.Resolver) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	diagram, err := gliffy.Parse(data)
	if err != nil {
		return fmt.Errorf("parsing: %w", err)
	}
	doc, skips := convert.ConvertWithReport(diagram, resolver)

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	dest := convertedName(path, outputDir)
	if outputDir != "" {
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(dest, out, 0o644); err != nil {
		return err
	}

	printSuccess("%s", filepath.Base(path))
	printFile(dest)
	printStats(len(doc.Elements), len(skips), false)
	for _, s := range skips {
		c.Logger.Debug("skipped object", "file", path, "id", s.NodeID, "kind", s.Kind, "reason", s.Reason)
	}
	return nil
}

// expandArgs resolves glob patterns and verifies each input exists.
func expandArgs(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		if strings.ContainsAny(arg, "*?[") {
			matches, err := filepath.Glob(arg)
			if err != nil {
				return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("no files match %q", arg)
			}
			files = append(files, matches...)
			continue
		}
		if _, err := os.Stat(arg); err != nil {
			return nil, err
		}
		files = append(files, arg)
	}
	return files, nil
}

// convertedName swaps the extension for .excalidraw, optionally relocating
// the file into dir.
func convertedName(path, dir string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".excalidraw"
	if dir == "" {
		return filepath.Join(filepath.Dir(path), base)
	}
	return filepath.Join(dir, base)
}
