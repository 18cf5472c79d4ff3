package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"newsportal/internal/content/slug"
)

func newSlugCmd() *cobra.Command {
	var filename bool
	cmd := &cobra.Command{
		Use:   "slug <text>...",
		Short: "Print the slug form of each argument",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				s := slug.Normalize(arg)
				if filename {
					s = slug.FromFilename(arg)
				}
				if s == "" {
					s = slug.Fallback(arg)
				}
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&filename, "filename", false, "treat arguments as file names and drop the extension")
	return cmd
}
