package cmd

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/guardiancare/server/internal/seed"
)

var seedOpts seed.Options

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert generated sample users and meals",
	Long:  "Insert generated sample users, meals and upcoming meals into the configured store for development.",
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().IntVar(&seedOpts.Users, "users", 20, "Number of users to generate")
	seedCmd.Flags().IntVar(&seedOpts.Meals, "meals", 50, "Number of meals to generate")
	seedCmd.Flags().IntVar(&seedOpts.Upcoming, "upcoming", 10, "Number of upcoming meals to generate")
	seedCmd.Flags().IntVarP(&seedOpts.Workers, "workers", "w", 8, "Concurrent inserts")
	seedCmd.Flags().Int64Var(&seedOpts.Seed, "seed", 42, "Random seed")
}

func runSeed(cmd *cobra.Command, args []string) error {
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

	report, err := seed.New(st, log).Run(ctx, seedOpts)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(report.Inserted))
	for name := range report.Inserted {
		names = append(names, name)
	}
	sort.Strings(names)
	out := cmd.OutOrStdout()
	for _, name := range names {
		fmt.Fprintf(out, "%-15s %d\n", name, report.Inserted[name])
	}
	fmt.Fprintf(out, "done in %s\n", report.Elapsed.Round(time.Millisecond))
	return nil
}
