package directory

import (
	"context"
	"fmt"
)

// AssignedLicense is one SKU currently held by a principal, with the
// service plans suppressed inside it.
type AssignedLicense struct {
	SkuID         string   `json:"skuId"`
	DisabledPlans []string `json:"disabledPlans,omitempty"`
}

// Principal represents a directory user account.
type Principal struct {
	ID                string            `json:"id"`
	UserPrincipalName string            `json:"userPrincipalName"`
	DisplayName       string            `json:"displayName,omitempty"`
	Mail              string            `json:"mail,omitempty"`
	UsageLocation     string            `json:"usageLocation,omitempty"`
	AccountEnabled    bool              `json:"accountEnabled"`
	AssignedLicenses  []AssignedLicense `json:"assignedLicenses,omitempty"`
}

// PasswordProfile carries the initial credential for a new principal.
type PasswordProfile struct {
	Password                      string `json:"password"`
	ForceChangePasswordNextSignIn bool   `json:"forceChangePasswordNextSignIn"`
}

// CreatePrincipalRequest is the request to create a principal.
type CreatePrincipalRequest struct {
	UserPrincipalName string            `json:"userPrincipalName"`
	DisplayName       string            `json:"displayName"`
	MailNickname      string            `json:"mailNickname,omitempty"`
	GivenName         string            `json:"givenName,omitempty"`
	Surname           string            `json:"surname,omitempty"`
	Department        string            `json:"department,omitempty"`
	JobTitle          string            `json:"jobTitle,omitempty"`
	UsageLocation     string            `json:"usageLocation,omitempty"`
	AccountEnabled    bool              `json:"accountEnabled"`
	PasswordProfile   PasswordProfile   `json:"passwordProfile"`
	OtherAttributes   map[string]string `json:"otherAttributes,omitempty"`
}

// queryPrincipalsRequest is the bulk read request body.
type queryPrincipalsRequest struct {
	Identifiers []string `json:"identifiers"`
}

// QueryPrincipals performs the bulk principal read at run start. The
// response contains one entry per identifier that exists; identifiers
// matching nothing are simply absent.
func (c *Client) QueryPrincipals(ctx context.Context, identifiers []string) ([]Principal, error) {
	var principals []Principal
	req := queryPrincipalsRequest{Identifiers: identifiers}
	if err := c.post(ctx, "/api/v1/principals/query", req, &principals); err != nil {
		return nil, err
	}
	return principals, nil
}

// GetPrincipal returns a single principal by identifier.
func (c *Client) GetPrincipal(ctx context.Context, identifier string) (*Principal, error) {
	var principal Principal
	if err := c.get(ctx, fmt.Sprintf("/api/v1/principals/%s", identifier), &principal); err != nil {
		return nil, err
	}
	return &principal, nil
}

// CreatePrincipal creates a new principal and returns its stable id.
func (c *Client) CreatePrincipal(ctx context.Context, req *CreatePrincipalRequest) (*Principal, error) {
	var principal Principal
	if err := c.post(ctx, "/api/v1/principals", req, &principal); err != nil {
		return nil, err
	}
	return &principal, nil
}
