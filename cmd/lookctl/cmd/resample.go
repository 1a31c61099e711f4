package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/lookforge/lookforge/pkg/lut"
)

// NewResampleCmd resamples a .cube LUT onto a new grid size.
func NewResampleCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resample <in.cube> <out.cube>",
		Short: "resample a .cube LUT to a new grid size",
		Long:  "read a .cube LUT, resample it tetrahedrally onto a new grid size and write it back out",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			size, _ := cmd.Flags().GetInt("size")
			title, _ := cmd.Flags().GetString("title")

			cube, err := lut.ReadCubeFile(args[0])
			if err != nil {
				return err
			}
			if cube.LUT3D == nil {
				return fmt.Errorf("%s: no 3D table to resample", args[0])
			}
			if title == "" {
				title = cube.Title
			}

			out, err := cube.LUT3D.Resample(size)
			if err != nil {
				return err
			}
			if err := lut.WriteCubeFile(args[1], out, title); err != nil {
				return err
			}
			slog.InfoContext(ctx, "LUT resampled",
				"in", args[0], "out", args[1],
				"from", cube.LUT3D.Size, "to", size)
			return nil
		},
	}
	pf := cmd.PersistentFlags()
	pf.IntP("size", "s", 33, "output grid size per axis")
	pf.StringP("title", "t", "", "output TITLE (defaults to the input's)")
	return cmd
}
