package main

import (
	"fmt"
	"runtime/debug"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the client version",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, figure.NewFigure("bankcli", "cybermedium", true).String())
			v := version
			if info, ok := debug.ReadBuildInfo(); ok && v == "dev" && released(info.Main.Version) {
				v = info.Main.Version
			}
			_, err := fmt.Fprintf(out, "bankcli %s\n", v)
			return err
		},
	}
}

// released reports whether a module version came from a tagged build.
// Local and test builds report "(devel)".
func released(v string) bool {
	return v != "" && v != "(devel)"
}
