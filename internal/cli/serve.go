package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/AgentOS/deskshell/internal/infrastructure/server"
)

func newServeCmd(opts *options) *cobra.Command {
	var addr struct {
		host string
		port string
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the shell service",
		Long: `Run the shell service: the REST API, the host bridge on /ws and the
metrics endpoint. SIGINT and SIGTERM shut it down after pending workspace
saves are flushed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if addr.host != "" {
				cfg.Server.Host = addr.host
			}
			if addr.port != "" {
				cfg.Server.Port = addr.port
			}

			srv, err := server.NewServer(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr.host, "host", "", "Listen host (overrides config)")
	cmd.Flags().StringVarP(&addr.port, "port", "p", "", "Listen port (overrides config)")
	return cmd
}
