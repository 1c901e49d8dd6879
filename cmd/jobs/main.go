// Command jobs runs the batch jobs from cron.
//
//	jobs sync [--facility ID ...]
//	jobs statements [--facility ID ...]
//	jobs token --subject ops@example.com
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lendcore/internal/adapter/middleware"
	"lendcore/internal/app"
	"lendcore/internal/config"
	"lendcore/internal/domain/jobreport"
	"lendcore/internal/infrastructure/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "jobs",
		Short:         "Run facility servicing batch jobs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		runCmd("sync", "Synchronize facilities from the servicing system", jobreport.TypeServicingSync),
		runCmd("statements", "Generate billing statements for billing-ready facilities", jobreport.TypeStatement),
		tokenCmd(),
	)
	return root
}

func runCmd(use, short string, typ jobreport.Type) *cobra.Command {
	var facilityIDs []string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.AppEnv, cfg.LogLevel)
			if err != nil {
				return err
			}
			a, err := app.New(cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			rep, err := a.Jobs.RunTargets(cmd.Context(), typ, facilityIDs)
			if err != nil {
				return err
			}
			logger.Info("job finished",
				zap.String("job_type", string(typ)),
				zap.String("run_id", rep.RunID),
				zap.String("status", string(rep.Status)))

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(rep); err != nil {
				return err
			}
			if rep.Status == jobreport.StatusFailed {
				return errors.New("job failed: " + rep.Failure)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&facilityIDs, "facility", nil, "limit the run to these facility ids (repeatable)")
	return cmd
}

func tokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an operator bearer token for the ops API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.OperatorJWTSecret == "" {
				return errors.New("OPERATOR_JWT_SECRET is not set")
			}
			tok, err := middleware.IssueOperatorToken([]byte(cfg.OperatorJWTSecret), subject, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "operator identity recorded in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
