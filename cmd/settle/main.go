// Command settle plans and runs bulk payment redemption against an exported
// ledger snapshot. It is the operational counterpart of the settlement API:
// providers run it on a schedule to sweep everything due in one transaction.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inferpay/escrow/internal/app/service/settlement"
	"github.com/inferpay/escrow/internal/app/service/transaction"
	"github.com/inferpay/escrow/internal/escrow"
	"github.com/inferpay/escrow/internal/platform/ledger"
	cfgpkg "github.com/inferpay/escrow/pkg/config"
)

var (
	statePath string
	provider  string
	limit     int
	dryRun    bool
	simulate  bool
	quiet     bool
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "settle",
		Short:         "Bulk-settle due subscription payments for a provider",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	cmd.Flags().StringVar(&statePath, "state", "", "path to the ledger snapshot file")
	cmd.Flags().StringVar(&provider, "provider", "", "provider party hash")
	cmd.Flags().IntVar(&limit, "limit", 0, "batch size cap (0 = configured default)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the plan without settling")
	cmd.Flags().BoolVar(&simulate, "simulate", false, "print fee savings without settling")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "machine-readable CSV output (with --simulate)")
	_ = cmd.MarkFlagRequired("state")
	_ = cmd.MarkFlagRequired("provider")
	return cmd
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := cfgpkg.New()
	if err != nil {
		return err
	}
	log := zap.NewNop().Sugar()
	if !quiet {
		if l, err := zap.NewProduction(); err == nil {
			log = l.Sugar()
		}
	}

	store := ledger.NewMemStore(log)
	if err := ledger.LoadSnapshot(statePath, store); err != nil {
		return err
	}

	svc := settlement.NewService(cfg, store, transaction.NewManager(cfg, store, log), log)
	party := escrow.PartyID(provider)
	ctx := context.Background()

	if simulate {
		sim := svc.Simulate(svc.Plan(ctx, party, limit, time.Now().UTC()))
		if quiet {
			fmt.Println(sim.CSV())
			return nil
		}
		fmt.Printf("eligible:         %d\n", sim.Eligible)
		fmt.Printf("total revenue:    %s\n", sim.TotalRevenue.StringFixed(6))
		fmt.Printf("individual fees:  %s\n", sim.IndividualFees.StringFixed(6))
		fmt.Printf("bulk fee:         %s\n", sim.BulkFee.StringFixed(6))
		fmt.Printf("savings:          %s (%s%%)\n", sim.Savings.StringFixed(6), sim.SavingsPercent.StringFixed(1))
		return nil
	}

	if dryRun {
		plan := svc.Plan(ctx, party, limit, time.Now().UTC())
		fmt.Printf("eligible: %d (skipped %d)\n", len(plan.Candidates), plan.Skipped)
		for _, c := range plan.Candidates {
			fmt.Printf("  %s  overdue %s  amount %d\n", c.Record.ID, c.Overdue.Truncate(time.Second), c.Amount)
		}
		return nil
	}

	result, err := svc.Settle(ctx, party, limit)
	if err != nil {
		return err
	}
	fmt.Printf("settled %d payment(s), revenue %d\n", len(result.Settled), result.Revenue)
	for _, d := range result.Dropped {
		fmt.Printf("  dropped %s: %s\n", d.RecordID, d.Reason)
	}
	return ledger.SaveSnapshot(statePath, store)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
