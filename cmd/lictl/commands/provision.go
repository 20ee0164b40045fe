package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/entraops/lictl/cmd/lictl/cmdutil"
	"github.com/entraops/lictl/internal/cli/prompt"
	"github.com/entraops/lictl/pkg/provision"
)

var provisionFlags struct {
	csvFile        string
	skus           []string
	disablePlans   []string
	passwordLength int
	forceChange    bool
	dryRun         bool
	yes            bool
	reportPath     string
}

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Create accounts from a CSV and license them",
	Long: `Create directory accounts from a CSV file and assign licenses to
them in the same pass.

Recognized CSV columns fill the account attributes (identifier, display
name, first/last name, department, job title, usage location); every
other column is echoed into the run report unchanged. Each account gets
a freshly generated initial password, included in the report.

Examples:
  # Provision accounts with an E3 license
  lictl provision --csv newhires.csv --sku ENTERPRISEPACK

  # Require a password change at first sign-in, write the report
  lictl provision --csv newhires.csv --sku ENTERPRISEPACK --force-change --report out.csv

  # Preview without creating anything
  lictl provision --csv newhires.csv --sku ENTERPRISEPACK --dry-run`,
	RunE: runProvision,
}

func init() {
	provisionCmd.Flags().StringVar(&provisionFlags.csvFile, "csv", "", "CSV file with accounts to create (required)")
	provisionCmd.Flags().StringSliceVar(&provisionFlags.skus, "sku", nil, "SKU to assign, by part number or id (repeatable)")
	provisionCmd.Flags().StringSliceVar(&provisionFlags.disablePlans, "disable-plan", nil, "Service plan to disable, by name or id (repeatable)")
	provisionCmd.Flags().IntVar(&provisionFlags.passwordLength, "password-length", 0, "Generated password length (default 16)")
	provisionCmd.Flags().BoolVar(&provisionFlags.forceChange, "force-change", false, "Require a password change at first sign-in")
	provisionCmd.Flags().BoolVar(&provisionFlags.dryRun, "dry-run", false, "Compute everything without creating accounts")
	provisionCmd.Flags().BoolVarP(&provisionFlags.yes, "yes", "y", false, "Skip the confirmation prompt")
	provisionCmd.Flags().StringVar(&provisionFlags.reportPath, "report", "", "Write the run report to this CSV file")
	_ = provisionCmd.MarkFlagRequired("csv")
}

func runProvision(cmd *cobra.Command, args []string) error {
	client, cfg, err := cmdutil.GetClient()
	if err != nil {
		return err
	}
	if len(provisionFlags.skus) == 0 {
		return fmt.Errorf("no target SKUs: use --sku")
	}

	f, err := os.Open(provisionFlags.csvFile)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", provisionFlags.csvFile, err)
	}
	rows, rowErrs, err := provision.ParseCSV(f)
	_ = f.Close()
	if err != nil {
		return err
	}
	for _, rowErr := range rowErrs {
		cmdutil.PrintWarning(fmt.Sprintf("skipping row: %v", rowErr))
	}
	if len(rows) == 0 {
		return fmt.Errorf("no usable rows in %s", provisionFlags.csvFile)
	}

	if !provisionFlags.dryRun {
		confirmed, err := prompt.ConfirmWithForce(
			fmt.Sprintf("Create %d account(s) in the directory?", len(rows)), provisionFlags.yes)
		if err != nil {
			return cmdutil.HandleAbort(err)
		}
		if !confirmed {
			fmt.Println("Aborted.")
			return nil
		}
	}

	p := provision.New(client)
	agg, err := p.Run(cmd.Context(), rows, provision.Options{
		TargetSkuTokens:   provisionFlags.skus,
		DisablePlanTokens: provisionFlags.disablePlans,
		PasswordLength:    provisionFlags.passwordLength,
		ForceChange:       provisionFlags.forceChange,
		DryRun:            provisionFlags.dryRun,
		Attempts:          cfg.Retry.Attempts,
		RetryDelay:        cfg.Retry.Delay,
	})
	if err != nil {
		return err
	}

	if err := cmdutil.PrintOutput(os.Stdout, agg.Outcomes(), agg.Len() == 0, "Nothing to do.", agg); err != nil {
		return err
	}

	if provisionFlags.reportPath != "" {
		if err := cmdutil.WriteReportFile(provisionFlags.reportPath, agg); err != nil {
			return err
		}
		cmdutil.PrintSuccess(fmt.Sprintf("Report written to %s", provisionFlags.reportPath))
	}

	if agg.HasFailures() {
		return fmt.Errorf("run finished with failures: %s", agg.Summary())
	}
	cmdutil.PrintSuccess(agg.Summary())
	return nil
}
