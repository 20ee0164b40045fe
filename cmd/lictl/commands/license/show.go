package license

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/entraops/lictl/cmd/lictl/cmdutil"
	"github.com/entraops/lictl/internal/cli/output"
	"github.com/entraops/lictl/pkg/catalog"
	"github.com/entraops/lictl/pkg/directory"
)

var showCmd = &cobra.Command{
	Use:   "show <identifier>",
	Short: "Show an account's current license assignments",
	Long: `Show the SKUs currently assigned to an account, with the service
plans disabled inside each.

Examples:
  # Show as table
  lictl license show alice@contoso.com

  # Show as JSON
  lictl license show alice@contoso.com -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

// assignmentView is one assigned SKU resolved against the catalog.
type assignmentView struct {
	SkuPartNumber string   `json:"skuPartNumber"`
	SkuID         string   `json:"skuId"`
	DisabledPlans []string `json:"disabledPlans,omitempty"`
}

// AssignmentList renders assignments for table output.
type AssignmentList []assignmentView

// Headers implements TableRenderer.
func (al AssignmentList) Headers() []string {
	return []string{"SKU", "SKU ID", "DISABLED PLANS"}
}

// Rows implements TableRenderer.
func (al AssignmentList) Rows() [][]string {
	rows := make([][]string, 0, len(al))
	for _, a := range al {
		rows = append(rows, []string{
			a.SkuPartNumber,
			a.SkuID,
			cmdutil.EmptyOr(strings.Join(a.DisabledPlans, ", "), "-"),
		})
	}
	return rows
}

func runShow(cmd *cobra.Command, args []string) error {
	client, _, err := cmdutil.GetClient()
	if err != nil {
		return err
	}

	principal, err := client.GetPrincipal(cmd.Context(), args[0])
	if err != nil {
		if directory.IsNotFound(err) {
			return fmt.Errorf("principal %q not found in directory", args[0])
		}
		return fmt.Errorf("failed to read principal: %w", err)
	}

	cat, err := catalog.Fetch(cmd.Context(), client)
	if err != nil {
		return err
	}

	views := make(AssignmentList, 0, len(principal.AssignedLicenses))
	for _, lic := range principal.AssignedLicenses {
		views = append(views, resolveAssignment(cat, lic))
	}

	if format, err := cmdutil.GetOutputFormatParsed(); err == nil && format == output.FormatTable {
		fmt.Println(accountLine(principal))
	}

	return cmdutil.PrintOutput(os.Stdout, views, len(views) == 0,
		fmt.Sprintf("%s holds no licenses.", principal.UserPrincipalName), views)
}

// accountLine is the one-line account header shown above the table.
func accountLine(p *directory.Principal) string {
	return fmt.Sprintf("%s  enabled: %s", p.UserPrincipalName, cmdutil.BoolToYesNo(p.AccountEnabled))
}

// resolveAssignment maps catalog ids back to readable names; unknown
// ids are shown raw rather than dropped.
func resolveAssignment(cat *catalog.Catalog, lic directory.AssignedLicense) assignmentView {
	view := assignmentView{
		SkuPartNumber: lic.SkuID,
		SkuID:         lic.SkuID,
	}

	sku, err := cat.ResolveSku(lic.SkuID)
	if err != nil {
		view.DisabledPlans = lic.DisabledPlans
		return view
	}
	view.SkuPartNumber = sku.SkuPartNumber

	names := make(map[string]string, len(sku.ServicePlans))
	for _, plan := range sku.ServicePlans {
		names[plan.ServicePlanID] = plan.ServicePlanName
	}
	for _, id := range lic.DisabledPlans {
		if name, ok := names[id]; ok {
			view.DisabledPlans = append(view.DisabledPlans, name)
		} else {
			view.DisabledPlans = append(view.DisabledPlans, id)
		}
	}
	return view
}
