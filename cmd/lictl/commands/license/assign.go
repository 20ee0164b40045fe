package license

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/entraops/lictl/cmd/lictl/cmdutil"
	"github.com/entraops/lictl/pkg/identity"
	"github.com/entraops/lictl/pkg/runner"
)

var assignFlags struct {
	users            []string
	csvFiles         []string
	skus             []string
	removeSkus       []string
	disablePlans     []string
	preserveDisabled bool
	interactive      bool
	dryRun           bool
	reportPath       string
	attempts         int
	retryDelay       string
}

var assignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Reconcile license assignments for a set of accounts",
	Long: `Reconcile license assignments for one or more accounts.

Target accounts come from --user flags, --csv files, or both. The
desired state is built from --sku, --disable-plan, and --remove-sku;
each account is diffed against it and only accounts that differ are
touched.

Examples:
  # Assign a SKU to two accounts
  lictl license assign --user alice@contoso.com --user bob@contoso.com --sku ENTERPRISEPACK

  # Bulk assign from a CSV, suppressing a plan
  lictl license assign --csv targets.csv --sku ENTERPRISEPREMIUM --disable-plan YAMMER_ENTERPRISE

  # Upgrade E3 to E5, carrying over each account's disabled plans
  lictl license assign --csv targets.csv --sku ENTERPRISEPREMIUM --remove-sku ENTERPRISEPACK --preserve-disabled

  # Preview without touching the directory
  lictl license assign --user alice@contoso.com --sku ENTERPRISEPACK --dry-run

  # Pick SKUs and plans interactively
  lictl license assign --csv targets.csv --interactive`,
	RunE: runAssign,
}

func init() {
	assignCmd.Flags().StringArrayVarP(&assignFlags.users, "user", "u", nil, "Target identifier (repeatable)")
	assignCmd.Flags().StringArrayVar(&assignFlags.csvFiles, "csv", nil, "CSV file with target identifiers (repeatable)")
	assignCmd.Flags().StringSliceVar(&assignFlags.skus, "sku", nil, "SKU to assign, by part number or id (repeatable)")
	assignCmd.Flags().StringSliceVar(&assignFlags.removeSkus, "remove-sku", nil, "SKU to remove, by part number or id (repeatable)")
	assignCmd.Flags().StringSliceVar(&assignFlags.disablePlans, "disable-plan", nil, "Service plan to disable, by name or id (repeatable)")
	assignCmd.Flags().BoolVar(&assignFlags.preserveDisabled, "preserve-disabled", false, "Carry each account's currently disabled plans into the new assignment")
	assignCmd.Flags().BoolVarP(&assignFlags.interactive, "interactive", "i", false, "Select SKUs and plans interactively")
	assignCmd.Flags().BoolVar(&assignFlags.dryRun, "dry-run", false, "Compute changes without applying them")
	assignCmd.Flags().StringVar(&assignFlags.reportPath, "report", "", "Write the run report to this CSV file")
	assignCmd.Flags().IntVar(&assignFlags.attempts, "attempts", 0, "Retry attempts for transient failures (default from config)")
	assignCmd.Flags().StringVar(&assignFlags.retryDelay, "retry-delay", "", "Delay between retries, e.g. 5s (default from config)")
}

func runAssign(cmd *cobra.Command, args []string) error {
	client, cfg, err := cmdutil.GetClient()
	if err != nil {
		return err
	}

	if len(assignFlags.skus) == 0 && !assignFlags.interactive {
		return fmt.Errorf("no target SKUs: use --sku or --interactive")
	}

	opts := runner.Options{
		TargetSkuTokens:   assignFlags.skus,
		RemoveSkuTokens:   assignFlags.removeSkus,
		DisablePlanTokens: assignFlags.disablePlans,
		SelectPlans:       assignFlags.interactive && len(assignFlags.disablePlans) == 0,
		PreserveDisabled:  assignFlags.preserveDisabled,
		DryRun:            assignFlags.dryRun,
		Attempts:          cfg.Retry.Attempts,
		RetryDelay:        cfg.Retry.Delay,
	}
	if assignFlags.attempts > 0 {
		opts.Attempts = assignFlags.attempts
	}
	if assignFlags.retryDelay != "" {
		delay, err := time.ParseDuration(assignFlags.retryDelay)
		if err != nil {
			return fmt.Errorf("invalid --retry-delay: %w", err)
		}
		opts.RetryDelay = delay
	}

	var selector runner.Selector
	if assignFlags.interactive {
		selector = interactiveSelector{}
	}

	r := runner.New(client, selector)
	agg, err := r.Run(cmd.Context(), identity.Input{
		Literals: assignFlags.users,
		Sources:  assignFlags.csvFiles,
	}, opts)
	if err != nil {
		return cmdutil.HandleAbort(err)
	}

	if err := cmdutil.PrintOutput(os.Stdout, agg.Outcomes(), agg.Len() == 0, "Nothing to do.", agg); err != nil {
		return err
	}

	if assignFlags.reportPath != "" {
		if err := cmdutil.WriteReportFile(assignFlags.reportPath, agg); err != nil {
			return err
		}
		cmdutil.PrintSuccess(fmt.Sprintf("Report written to %s", assignFlags.reportPath))
	}

	if agg.HasFailures() {
		return fmt.Errorf("run finished with failures: %s", agg.Summary())
	}
	cmdutil.PrintSuccess(agg.Summary())
	return nil
}
