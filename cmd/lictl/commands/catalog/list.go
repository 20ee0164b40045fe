package catalog

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/entraops/lictl/cmd/lictl/cmdutil"
	"github.com/entraops/lictl/pkg/directory"
)

var listPlans bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List subscribed SKUs",
	Long: `List the SKUs the tenant is subscribed to, with unit counters.

Examples:
  # List SKUs as table
  lictl catalog list

  # Include each SKU's service plans
  lictl catalog list --plans

  # List as JSON
  lictl catalog list -o json`,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVar(&listPlans, "plans", false, "Include service plans per SKU")
}

// SkuList is a list of SKUs for table rendering.
type SkuList []directory.SubscribedSku

// Headers implements TableRenderer.
func (sl SkuList) Headers() []string {
	return []string{"PART NUMBER", "SKU ID", "STATUS", "ENABLED", "CONSUMED", "AVAILABLE", "PLANS"}
}

// Rows implements TableRenderer.
func (sl SkuList) Rows() [][]string {
	rows := make([][]string, 0, len(sl))
	for _, sku := range sl {
		rows = append(rows, []string{
			sku.SkuPartNumber,
			sku.SkuID,
			cmdutil.EmptyOr(sku.CapabilityStatus, "-"),
			strconv.Itoa(sku.PrepaidUnits.Enabled),
			strconv.Itoa(sku.ConsumedUnits),
			strconv.Itoa(sku.AvailableUnits()),
			strconv.Itoa(len(sku.ServicePlans)),
		})
	}
	return rows
}

// PlanList renders every service plan of every SKU.
type PlanList []directory.SubscribedSku

// Headers implements TableRenderer.
func (pl PlanList) Headers() []string {
	return []string{"SKU", "PLAN NAME", "PLAN ID", "APPLIES TO", "STATUS"}
}

// Rows implements TableRenderer.
func (pl PlanList) Rows() [][]string {
	var rows [][]string
	for _, sku := range pl {
		for _, plan := range sku.ServicePlans {
			rows = append(rows, []string{
				sku.SkuPartNumber,
				plan.ServicePlanName,
				plan.ServicePlanID,
				cmdutil.EmptyOr(plan.AppliesTo, "-"),
				cmdutil.EmptyOr(plan.ProvisioningStatus, "-"),
			})
		}
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	client, _, err := cmdutil.GetClient()
	if err != nil {
		return err
	}

	skus, err := client.ListSubscriptions(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list subscriptions: %w", err)
	}

	if listPlans {
		return cmdutil.PrintOutput(os.Stdout, skus, len(skus) == 0, "No subscriptions found.", PlanList(skus))
	}
	return cmdutil.PrintOutput(os.Stdout, skus, len(skus) == 0, "No subscriptions found.", SkuList(skus))
}
