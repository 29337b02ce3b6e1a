package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/transparencia/internal/app"
	"github.com/kailas-cloud/transparencia/internal/config"
	"github.com/kailas-cloud/transparencia/internal/domain/outcome"
	"github.com/kailas-cloud/transparencia/internal/domain/query"
	logpkg "github.com/kailas-cloud/transparencia/internal/logger"
)

var local struct {
	env    string
	filter string
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&local.env, "env", config.GetEnv(), "config environment (config/<env>.yaml)")
	runCmd.Flags().StringVarP(&local.filter, "filter", "f", "", "refinement filter (regular expression)")
}

var runCmd = &cobra.Command{
	Use:   "run <cpf|nis|name>",
	Short: "Runs one collection in-process with a local browser.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(local.env)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger, err := logpkg.NewLogger(local.env, cfg.Logging.Level)
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
		defer func() { _ = logger.Sync() }()

		a, err := app.New(cfg, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := a.Close(); err != nil {
				logger.Warn("Browser engine close failed", zap.Error(err))
			}
		}()

		ctx := logpkg.ContextWithLogger(cmd.Context(), logger)
		o := a.Collect.Collect(ctx, query.New(args[0], local.filter))

		switch o.Kind() {
		case outcome.KindOK:
			return render(cmd.OutOrStdout(), output, fromRecord(o.Result()))
		case outcome.KindNotFound:
			fmt.Fprintln(cmd.ErrOrStderr(), o.Message())
			return nil
		default:
			return fmt.Errorf("%s fault: %s", o.FaultKind(), o.Message())
		}
	},
}
