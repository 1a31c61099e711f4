package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lookforge/lookforge/pkg/colorspace"
	"github.com/lookforge/lookforge/pkg/logging"
)

func NewRoot(ctx context.Context, gitsha string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookctl",
		Short: "a CLI to build camera-log look profiles and LUTs",
		Long:  "lookctl bakes log-space colour pipelines and creative LUTs into look profiles",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logLevel, _ := cmd.Flags().GetString("log-level")
			logFile, _ := cmd.Flags().GetString("log-file")

			// Parse log level
			var level slog.Level
			if err := level.UnmarshalText([]byte(strings.ToUpper(logLevel))); err != nil {
				level = slog.LevelInfo
			}
			var w io.Writer = os.Stdout
			json := false
			if logFile != "" {
				w = logging.Rotating(logFile)
				json = true
			}
			slog.SetDefault(logging.Logger(w, json, level))

			if err := level.UnmarshalText([]byte(strings.ToUpper(logLevel))); err != nil {
				slog.WarnContext(ctx, "Invalid log level, defaulting to INFO", "level", logLevel, "error", err)
			}
		},
		Run: func(cmd *cobra.Command, args []string) {
			printCommandTree(cmd, 0)
		},
	}
	cmd.AddCommand(
		NewVersionCmd(ctx, gitsha),
		NewSpacesCmd(ctx),
		NewProfileCmd(ctx),
		NewResampleCmd(ctx),
	)
	pf := cmd.PersistentFlags()
	pf.String("log-level", "INFO", "Log level (DEBUG, INFO, WARN, ERROR)")
	pf.String("log-file", "", "Log to a rotating file instead of stdout")
	return cmd
}

func printCommandTree(cmd *cobra.Command, indent int) {
	fmt.Println(strings.Repeat("\t", indent), cmd.Use+":", cmd.Short)
	for _, subCmd := range cmd.Commands() {
		printCommandTree(subCmd, indent+1)
	}
}

func NewVersionCmd(ctx context.Context, gitsha string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "git sha for this build",
		Long:  "git sha for this build",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(gitsha)
		},
	}
	return cmd
}

// NewSpacesCmd lists the supported log spaces with their working gamuts.
func NewSpacesCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spaces",
		Short: "list supported log spaces",
		Long:  "list supported log spaces and the working gamut each one encodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range colorspace.LogSpaceNames() {
				space, curve, err := colorspace.ResolveLogSpace(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-16s %-24s (%s)\n", name, space.Name, curve.Name)
			}
			return nil
		},
	}
	return cmd
}
