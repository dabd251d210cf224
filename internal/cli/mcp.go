package cli

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/a3tai/goodnotes-pdf/internal/config"
	mcpserver "github.com/a3tai/goodnotes-pdf/internal/mcp"
)

func mcpCmd(info BuildInfo) *cobra.Command {
	c := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the extraction tools over MCP on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, info)
			if err != nil {
				return err
			}
			logger := newLogger(cfg, cmd.ErrOrStderr())

			server, err := mcpserver.NewServer(cfg, afero.NewOsFs(), logger)
			if err != nil {
				return err
			}

			logger.WithField("root", cfg.Directory).Info("MCP server listening on stdio")
			if err := server.Run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
				logger.WithError(err).Error("MCP server stopped")
				return err
			}
			logger.Info("MCP server stopped")
			return nil
		},
	}

	config.RegisterServerFlags(c.Flags())
	return c
}
