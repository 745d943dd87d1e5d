package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/AgentOS/deskshell/internal/infrastructure/config"
)

// options holds the global flags
type options struct {
	configPath string
	jsonOutput bool
}

func (o *options) loadConfig() (*config.Config, error) {
	return config.LoadFile(o.configPath)
}

// NewRootCommand builds the deskshell command tree.
func NewRootCommand(version string) *cobra.Command {
	if version == "" {
		version = "dev"
	}
	opts := &options{}

	root := &cobra.Command{
		Use:     "deskshell",
		Version: version,
		Short:   "Desktop shell session service for diagram editors",
		Long: `deskshell keeps the editor session of a desktop modeler: it restores the
last workspace on startup, persists it on every change, routes menu actions
and negotiates quitting with the host application.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	root.SetVersionTemplate("{{.Version}}\n")

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to a TOML config file")
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "Output in JSON format")

	root.AddGroup(&cobra.Group{ID: "service", Title: "Service:"})
	root.AddGroup(&cobra.Group{ID: "inspect", Title: "Inspection:"})

	serve := newServeCmd(opts)
	serve.GroupID = "service"
	deploy := newDeployCmd(opts)
	deploy.GroupID = "service"
	workspace := newWorkspaceCmd(opts)
	workspace.GroupID = "inspect"
	providers := newProvidersCmd(opts)
	providers.GroupID = "inspect"

	root.AddCommand(serve, deploy, workspace, providers)
	return root
}

// Execute runs the command tree with ctx.
func Execute(ctx context.Context, version string) error {
	return NewRootCommand(version).ExecuteContext(ctx)
}
