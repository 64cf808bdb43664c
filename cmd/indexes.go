package cmd

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/guardiancare/server/internal/app"
	"github.com/guardiancare/server/internal/payment"
)

var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "Create the unique submission indexes and exit",
	RunE:  runIndexes,
}

func runIndexes(cmd *cobra.Command, args []string) error {
	cfg, log, flush, err := setup()
	if err != nil {
		return err
	}
	defer flush()

	ctx := cmd.Context()
	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close(context.Background())

	a := app.New(st, payment.NewStripeIntents(cfg.StripeSecretKey), log, prometheus.NewRegistry())
	if err := a.EnsureIndexes(ctx); err != nil {
		return err
	}
	log.Info("indexes ready")
	return nil
}
