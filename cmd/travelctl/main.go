// Command travelctl runs operator tasks against the travel database: schema migrations,
// fixture seeding, the legacy package backfill, bucket setup, diagnostics and exports.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"travelshop/internal/adapters/observability"
	"travelshop/internal/shared"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	env := &cliEnv{}
	cmd := &cobra.Command{
		Use:           "travelctl",
		Short:         "Operator tools for the travel storefront",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			env.cfg = shared.Load()
			log.Logger = observability.NewLogger(env.cfg.AppEnv)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			env.close()
		},
	}
	cmd.AddCommand(
		newMigrateCommand(env),
		newSeedCommand(env),
		newBackfillCommand(env),
		newBucketCommand(env),
		newDiagnoseCommand(env),
		newExportCommand(env),
		newNormalizeCommand(env),
	)
	return cmd
}
