package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lookforge/lookforge/pkg/pipeline"
)

// NewProfileCmd builds look profiles from .cube LUT files. With no LUT
// arguments it emits the bare pipeline profile for the log space.
func NewProfileCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile [lut.cube ...]",
		Short: "generate look profiles",
		Long:  "bake the log-space colour pipeline (plus an optional creative LUT) into an XMP look profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			logSpace, _ := cmd.Flags().GetString("log-space")
			name, _ := cmd.Flags().GetString("name")
			size, _ := cmd.Flags().GetInt("size")
			outDir, _ := cmd.Flags().GetString("out")
			adapt, _ := cmd.Flags().GetBool("adapt")
			workers, _ := cmd.Flags().GetInt("workers")

			if logSpace == "" {
				return fmt.Errorf("--log-space is required")
			}
			if outDir != "" {
				if err := os.MkdirAll(outDir, 0755); err != nil {
					return err
				}
			}

			opts := pipeline.DefaultOptions(logSpace)
			opts.GridSize = size
			opts.Adapt = adapt

			items := profileItems(args, name, logSpace, outDir, opts)
			sum := pipeline.RunBatch(ctx, items, workers)
			for _, res := range sum.Results {
				status := "ok"
				if res.Err != nil {
					status = "FAILED: " + res.Err.Error()
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", res.Name, status)
			}
			if sum.Failed > 0 {
				return fmt.Errorf("%d of %d profiles failed", sum.Failed, len(items))
			}
			return nil
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringP("log-space", "l", "", "target log space, e.g. S-Log3 (required)")
	pf.StringP("name", "n", "", "profile name (defaults to LUT basename)")
	pf.Int("size", 0, "profile grid size per axis")
	pf.StringP("out", "o", "", "output directory for .xmp files (default alongside the LUT)")
	pf.Bool("adapt", false, "chromatically adapt between gamut white points")
	pf.Int("workers", runtime.NumCPU(), "parallel profile builds")
	return cmd
}

func profileItems(luts []string, name, logSpace, outDir string, opts pipeline.Options) []pipeline.Item {
	if len(luts) == 0 {
		if name == "" {
			name = logSpace
		}
		out := filepath.Join(outDir, safeFilename(name)+".xmp")
		return []pipeline.Item{profileItem(name, "", out, opts)}
	}

	items := make([]pipeline.Item, 0, len(luts))
	for _, lutPath := range luts {
		base := strings.TrimSuffix(filepath.Base(lutPath), filepath.Ext(lutPath))
		itemName := name
		if itemName == "" || len(luts) > 1 {
			itemName = base
		}
		dir := outDir
		if dir == "" {
			dir = filepath.Dir(lutPath)
		}
		out := filepath.Join(dir, safeFilename(itemName)+".xmp")
		items = append(items, profileItem(itemName, lutPath, out, opts))
	}
	return items
}

func profileItem(name, lutPath, outPath string, opts pipeline.Options) pipeline.Item {
	return pipeline.Item{
		Name: name,
		Run: func(ctx context.Context) *pipeline.Result {
			res := pipeline.Profile(ctx, name, lutPath, opts)
			if res.Err != nil {
				return res
			}
			if err := os.WriteFile(outPath, []byte(res.Profile.XMP), 0644); err != nil {
				res.Err = err
				return res
			}
			res.Logf("wrote %s", outPath)
			return res
		},
	}
}

func safeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
}
