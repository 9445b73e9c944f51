package main

import (
	"context"
	"fmt"
	"time"

	"github.com/smallbiznis/pathway/internal/server"
	workflowdomain "github.com/smallbiznis/pathway/internal/workflow/domain"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "pathway",
		Short:         "Application-process workflow service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newSeedWorkflowsCommand(),
	)
	return root
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fx.New(
				coreModules(),
				domainModules(),
				server.Module,
			)
			if err := app.Err(); err != nil {
				return err
			}
			app.Run()
			return nil
		},
	}
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd.Context(), coreModules(), nil)
		},
	}
}

func newSeedWorkflowsCommand() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "seed-workflows",
		Short: "Re-seed the workflow of every representing country",
		Long: `Materializes the process-template catalog into every live representing
country of every organization. Existing steps keep their custom names,
notes and active flags; only their positions are realigned.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				workflowSvc workflowdomain.Service
				log         *zap.Logger
			)
			opts := fx.Options(
				coreModules(),
				domainModules(),
				fx.Populate(&workflowSvc, &log),
			)
			return runOnce(cmd.Context(), opts, func(ctx context.Context) error {
				ctx, cancel := context.WithTimeout(ctx, timeout)
				defer cancel()

				result, err := workflowSvc.BackfillAll(ctx)
				if err != nil {
					return err
				}
				log.Info("workflow backfill finished",
					zap.Int("countries", result.Countries),
					zap.Int("created", result.Created),
					zap.Int("reordered", result.Reordered),
				)
				fmt.Fprintf(cmd.OutOrStdout(), "countries=%d created=%d reordered=%d\n", result.Countries, result.Created, result.Reordered)
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "maximum run time")
	return cmd
}

// runOnce starts the application, runs fn and stops it again. Constructors
// and start hooks run exactly once.
func runOnce(ctx context.Context, opts fx.Option, fn func(context.Context) error) error {
	app := fx.New(opts, fx.NopLogger)
	if err := app.Err(); err != nil {
		return err
	}

	ctx = contextOrBackground(ctx)
	startCtx, cancel := context.WithTimeout(ctx, fx.DefaultTimeout)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}

	var runErr error
	if fn != nil {
		runErr = fn(ctx)
	}

	stopCtx, cancelStop := context.WithTimeout(context.Background(), fx.DefaultTimeout)
	defer cancelStop()
	if err := app.Stop(stopCtx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
