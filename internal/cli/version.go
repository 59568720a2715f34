package cli

import (
	"github.com/spf13/cobra"
)

type versionInfo struct {
	Version string `json:"version"`
}

func newVersionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of basejump-demo",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.output == outputText {
				cmd.Println("basejump-demo " + Version)
				return nil
			}
			return printValue(cmd.OutOrStdout(), opts.output, versionInfo{Version: Version})
		},
	}
}
