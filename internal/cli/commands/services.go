package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"composewait/internal/compose"
)

// ServicesCommand creates the services command
func ServicesCommand(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "services",
		Short: "List the services declared in the compose file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := deps.Config()
			file, err := compose.ParseComposeFile(cfg.ComposeFile)
			if err != nil {
				return err
			}

			names := file.GetServiceNames()
			if len(names) == 0 {
				fmt.Fprintf(deps.out(), "No services declared in %s\n", cfg.ComposeFile)
				return nil
			}

			w := tabwriter.NewWriter(deps.out(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SERVICE\tIMAGE\tHEALTHCHECK")
			for _, name := range names {
				svc := file.Services[name]
				healthcheck := "no"
				if svc.HasHealthcheck() {
					healthcheck = "yes"
				}
				image := svc.Image
				if image == "" {
					image = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", name, image, healthcheck)
			}
			return w.Flush()
		},
	}
}
