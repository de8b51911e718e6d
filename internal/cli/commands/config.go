package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"composewait/internal/xdg"
)

// ConfigCommand creates the config command
func ConfigCommand(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := deps.Config().Marshal()
			if err != nil {
				return err
			}
			_, err = deps.out().Write(data)
			return err
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "save [path]",
		Short: "Write the effective configuration to a file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				p, err := xdg.ConfigFile()
				if err != nil {
					return err
				}
				path = p
			}

			if err := deps.Config().Save(path); err != nil {
				return err
			}
			fmt.Fprintf(deps.out(), "Configuration written to %s\n", path)
			return nil
		},
	})

	return cmd
}
