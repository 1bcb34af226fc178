package cmd

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ib-77/cellarfeed/pkg/ingest"
)

func newImportCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Import the feed once and exit.",
		Long: `Import the feed once into the configured store. The command exits
non-zero if the import fails or is interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.close()

			run, err := a.importer.Import(ctx)
			if err != nil {
				return err
			}
			if run.State() != ingest.Completed {
				return errors.Wrapf(run.Err(), "import %s %s", run.ID(), run.State())
			}
			fmt.Fprintf(stdout, "import %s completed in %s\n", run.ID(), run.FinishedAt().Sub(run.StartedAt()))
			return nil
		},
	}
}
