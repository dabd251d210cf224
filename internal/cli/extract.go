package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/a3tai/goodnotes-pdf/internal/config"
	apperrors "github.com/a3tai/goodnotes-pdf/internal/errors"
	"github.com/a3tai/goodnotes-pdf/internal/extract"
)

func extractCmd(info BuildInfo) *cobra.Command {
	c := &cobra.Command{
		Use:   "extract <archive.goodnotes>",
		Short: "Extract the PDF attachments of an export and build merged.pdf",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, info)
			if err != nil {
				return err
			}
			logger := newLogger(cfg, cmd.ErrOrStderr())

			archivePath, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("cannot resolve %s: %w", args[0], err)
			}

			theme := DefaultTheme()
			progress := newProgressPrinter(cmd.ErrOrStderr(), theme)

			service := extract.NewService(afero.NewOsFs(), cfg, logger)
			report, err := service.Extract(cmd.Context(), extract.Request{
				Archive:   archivePath,
				OutputDir: cfg.OutputDir,
				Merge:     cfg.Merge,
			}, progress.Update)
			progress.Finish()
			if err != nil {
				if hint := apperrors.TypeOf(err).Hint(); hint != "" {
					fmt.Fprintln(cmd.ErrOrStderr(), theme.Warning.Render("hint: "+hint))
				}
				return err
			}

			_, err = fmt.Fprint(cmd.OutOrStdout(), renderReport(theme, report))
			return err
		},
	}

	config.RegisterExtractFlags(c.Flags())
	return c
}
