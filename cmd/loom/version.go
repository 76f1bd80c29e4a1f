package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func versionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print version, commit, and build information for the loom CLI.`,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			if short {
				fmt.Fprintln(out, version)
				return
			}

			fmt.Fprintln(out, titleStyle.Render("loom"))
			fmt.Fprintln(out, field("Version", version))
			fmt.Fprintln(out, field("Commit", commit))
			fmt.Fprintln(out, field("Built", date))
			fmt.Fprintln(out, field("Go version", runtime.Version()))
			fmt.Fprintln(out, field("OS/Arch", runtime.GOOS+"/"+runtime.GOARCH))
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only version number")

	return cmd
}
