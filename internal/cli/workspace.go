package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/deskshell/internal/domain/workspace"
	"github.com/GriffinCanCode/AgentOS/deskshell/internal/shared/types"
)

func newWorkspaceCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workspace",
		Short: "Inspect the persisted workspace",
	}
	cmd.AddCommand(newWorkspaceShowCmd(opts), newWorkspacePathCmd(opts))
	return cmd
}

func (o *options) openStore() (*workspace.FileStore, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	path, err := cfg.Workspace.ResolvePath()
	if err != nil {
		return nil, err
	}
	return workspace.NewFileStore(path, zap.NewNop()), nil
}

func newWorkspaceShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the files, active file and layout of the last session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.openStore()
			if err != nil {
				return err
			}

			cfg, err := store.Restore(cmd.Context(), types.DefaultWorkspaceConfig())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return outputJSON(out, cfg)
			}

			printSection(out, "Workspace")
			printLabelValue(out, "Path", store.Path())
			printLabelValue(out, "Revision", orNone(cfg.Revision))
			if active, ok := cfg.Active(); ok {
				printLabelValue(out, "Active File", active.Path)
			} else {
				printLabelValue(out, "Active File", "none")
			}
			printLabelValue(out, "Layout Keys", fmt.Sprintf("%d", len(cfg.Layout)))

			_, _ = fmt.Fprintln(out)
			printSection(out, fmt.Sprintf("Files (%d)", len(cfg.Files)))
			if len(cfg.Files) == 0 {
				printEmptyState(out, "no files")
				return nil
			}
			for i, f := range cfg.Files {
				marker := " "
				if i == cfg.ActiveFile {
					marker = "*"
				}
				_, _ = fmt.Fprintf(out, "  %s %d. %s ", marker, i+1, f.Name)
				_, _ = dimColor.Fprintf(out, "%s\n", f.Path)
			}
			return nil
		},
	}
}

func newWorkspacePathCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the workspace file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.openStore()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), store.Path())
			return err
		},
	}
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
