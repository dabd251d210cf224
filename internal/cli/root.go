// Package cli implements the goodnotes-pdf command line.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/a3tai/goodnotes-pdf/internal/config"
)

// BuildInfo is set from linker flags in main
type BuildInfo struct {
	Version   string
	BuildTime string
	GitCommit string
}

// Execute runs the root command and exits non-zero on failure
func Execute(info BuildInfo) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	if err := newRootCmd(info).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd(info BuildInfo) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goodnotes-pdf",
		Short: "Extract the imported PDFs from GoodNotes exports",
		Long: "goodnotes-pdf recovers the PDF documents embedded in a .goodnotes export,\n" +
			"orders them the way the notebook shows them and merges them into merged.pdf.",
		SilenceUsage: true,
	}

	config.RegisterCommonFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		extractCmd(info),
		mcpCmd(info),
		versionCmd(info),
	)
	return cmd
}

// loadConfig resolves the configuration for cmd and applies the build version
func loadConfig(cmd *cobra.Command, info BuildInfo) (*config.Config, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	if info.Version != "" && info.Version != "dev" {
		cfg.Version = info.Version
	}
	return cfg, nil
}

// newLogger writes logs to w, which is stderr for every command so stdout
// stays free for results and the MCP protocol
func newLogger(cfg *config.Config, w io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.IsDebug() {
		logger.WithField("config", cfg.String()).Debug("Loaded configuration")
	}
	return logger
}
