package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/deskshell/internal/providers/deploy"
)

func newDeployCmd(opts *options) *cobra.Command {
	var req deploy.Request

	cmd := &cobra.Command{
		Use:   "deploy <url> --file <diagram> --name <deployment>",
		Short: "Deploy a diagram to an engine endpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if req.File.Path != "" {
				req.File.Name = filepath.Base(req.File.Path)
			}

			deployer := deploy.NewDeployer(deploy.NewClient(cfg.Deploy), zap.NewNop(), nil)
			result, err := deployer.Deploy(cmd.Context(), args[0], req)
			if err != nil {
				var statusErr *deploy.StatusError
				if errors.As(err, &statusErr) {
					return fmt.Errorf("deployment rejected: %w", err)
				}
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return outputJSON(out, result)
			}
			printSuccess(out, fmt.Sprintf("Deployed %s as %q", req.File.Name, req.DeploymentName))
			if s, ok := result.(string); ok {
				printLabelValue(out, "Response", s)
				return nil
			}
			return outputJSON(out, result)
		},
	}

	cmd.Flags().StringVarP(&req.File.Path, "file", "f", "", "Diagram file to deploy")
	cmd.Flags().StringVarP(&req.DeploymentName, "name", "n", "", "Deployment name")
	cmd.Flags().StringVarP(&req.TenantID, "tenant", "t", "", "Tenant ID")
	return cmd
}

