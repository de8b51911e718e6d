package commands

import (
	"github.com/spf13/cobra"

	"composewait/internal/container"
)

// InstallCommand creates the install command
func InstallCommand(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Install Docker if it is missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return container.NewInstaller(deps.runner(), deps.reporter()).EnsureInstalled(cmd.Context())
		},
	}
}
