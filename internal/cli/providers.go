package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/deskshell/internal/domain/registry"
)

func newProvidersCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List the document types the shell can open",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			catalog, err := registry.Default()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, failed, err := registry.NewSeeder(catalog, cfg.Providers.Dir, zap.NewNop()).Seed()
			if err != nil {
				return err
			}

			providers := catalog.List()
			if opts.jsonOutput {
				return outputJSON(out, providers)
			}

			printSection(out, fmt.Sprintf("Providers (%d)", len(providers)))
			for _, p := range providers {
				printLabelValue(out, p.Kind, fmt.Sprintf("%s [%s]", p.Name, strings.Join(p.Patterns, ", ")))
			}
			if failed > 0 {
				_, _ = fmt.Fprintln(out)
				printWarning(out, fmt.Sprintf("%d provider definitions in %s could not be loaded", failed, cfg.Providers.Dir))
			}
			return nil
		},
	}
}
