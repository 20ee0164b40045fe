package directory

import (
	"context"
	"fmt"
)

// LicenseAssignment is one SKU to add, with an optional disabled-plan
// list. A nil DisabledPlans means the bare SKU with every plan enabled.
type LicenseAssignment struct {
	SkuID         string   `json:"skuId"`
	DisabledPlans []string `json:"disabledPlans,omitempty"`
}

// AssignLicenseRequest carries both directions of a license change.
// The API applies adds and removes atomically for one principal, so a
// SKU swap never leaves the account momentarily unlicensed.
type AssignLicenseRequest struct {
	AddLicenses    []LicenseAssignment `json:"addLicenses"`
	RemoveLicenses []string            `json:"removeLicenses"`
}

// AssignLicense applies a combined add/remove license change to one
// principal and returns the updated principal.
func (c *Client) AssignLicense(ctx context.Context, principalID string, req *AssignLicenseRequest) (*Principal, error) {
	var principal Principal
	path := fmt.Sprintf("/api/v1/principals/%s/assignLicense", principalID)
	if err := c.post(ctx, path, req, &principal); err != nil {
		return nil, err
	}
	return &principal, nil
}
