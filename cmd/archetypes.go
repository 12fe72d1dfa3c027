// File: cmd/archetypes.go
package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/decoy-cli/internal/fingerprint"
	"github.com/xkilldash9x/decoy-cli/internal/journey"
)

// newArchetypesCmd creates the `archetypes` command, a read-only listing of
// the device pool session identities are drawn from.
func newArchetypesCmd() *cobra.Command {
	archetypesCmd := &cobra.Command{
		Use:   "archetypes",
		Short: "Lists the device archetypes sessions can present",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("catalog")
			if path == "" {
				if cfg, err := configFromCommand(cmd); err == nil {
					path = cfg.Run.CatalogFile
				}
			}

			catalog := fingerprint.DefaultCatalog()
			if path != "" {
				loaded, err := fingerprint.LoadCatalog(path)
				if err != nil {
					return fmt.Errorf("%w: %v", journey.ErrInputError, err)
				}
				catalog = loaded
			}

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "Kind\tPlatform\tViewport\tScale\tMemory\tCores\tUser Agent")
			for _, a := range catalog.All() {
				fmt.Fprintf(tw, "%s\t%s\t%dx%d\t%.2f\t%dGB\t%d\t%s\n",
					a.Kind, a.Platform,
					a.Viewport.Width, a.Viewport.Height,
					a.DeviceScaleFactor, a.DeviceMemoryGB,
					a.HardwareConcurrency, a.UserAgent)
			}
			tw.Flush()

			w := catalog.Weights
			fmt.Fprintf(out, "\n%d archetypes (draw weights: desktop %d / mobile %d / tablet %d)\n",
				len(catalog.All()), w.Desktop, w.Mobile, w.Tablet)
			return nil
		},
	}

	archetypesCmd.Flags().String("catalog", "", "Path to a JSON archetype catalog to list instead of the built-in pool.")
	return archetypesCmd
}
