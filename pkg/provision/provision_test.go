package provision

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entraops/lictl/pkg/directory"
	"github.com/entraops/lictl/pkg/reconcile"
)

type fakeDirectory struct {
	skus []directory.SubscribedSku

	createErrs map[string]error // upn -> error
	created    []*directory.CreatePrincipalRequest

	assignErr    error
	assignCalls  int
	lastRequest  *directory.AssignLicenseRequest
	lastAssignID string
}

func (f *fakeDirectory) ListSubscriptions(ctx context.Context) ([]directory.SubscribedSku, error) {
	return f.skus, nil
}

func (f *fakeDirectory) CreatePrincipal(ctx context.Context, req *directory.CreatePrincipalRequest) (*directory.Principal, error) {
	if err := f.createErrs[req.UserPrincipalName]; err != nil {
		return nil, err
	}
	f.created = append(f.created, req)
	return &directory.Principal{ID: "id-" + req.UserPrincipalName, UserPrincipalName: req.UserPrincipalName}, nil
}

func (f *fakeDirectory) AssignLicense(ctx context.Context, principalID string, req *directory.AssignLicenseRequest) (*directory.Principal, error) {
	f.assignCalls++
	f.lastAssignID = principalID
	f.lastRequest = req
	if f.assignErr != nil {
		return nil, f.assignErr
	}
	return &directory.Principal{ID: principalID}, nil
}

func fakeSkus() []directory.SubscribedSku {
	return []directory.SubscribedSku{
		{
			SkuID:         "sku-e3",
			SkuPartNumber: "ENTERPRISEPACK",
			ServicePlans: []directory.ServicePlan{
				{ServicePlanID: "plan-yammer", ServicePlanName: "YAMMER_ENTERPRISE"},
			},
		},
	}
}

func fastOpts() Options {
	return Options{
		TargetSkuTokens: []string{"ENTERPRISEPACK"},
		Attempts:        1,
		RetryDelay:      time.Millisecond,
	}
}

func TestParseCSVKnownAndExtraColumns(t *testing.T) {
	input := "UPN,Display Name,First_Name,Department,CostCenter\n" +
		"alice@contoso.com,Alice A,Alice,Engineering,CC-42\n"

	rows, rowErrs, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Empty(t, rowErrs)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "alice@contoso.com", row.UserPrincipalName)
	assert.Equal(t, "Alice A", row.DisplayName)
	assert.Equal(t, "Alice", row.GivenName)
	assert.Equal(t, "Engineering", row.Department)
	assert.True(t, row.AccountEnabled)
	assert.Equal(t, map[string]string{"CostCenter": "CC-42"}, row.Extra)
}

func TestParseCSVDerivesDisplayName(t *testing.T) {
	rows, _, err := ParseCSV(strings.NewReader("upn\njohn.doe@contoso.com\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "John Doe", rows[0].DisplayName)
}

func TestParseCSVAccountEnabledColumn(t *testing.T) {
	rows, _, err := ParseCSV(strings.NewReader("upn,enabled\na@x.com,false\nb@x.com,true\n"))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.False(t, rows[0].AccountEnabled)
	assert.True(t, rows[1].AccountEnabled)
}

func TestParseCSVMissingIdentifierRowIsolated(t *testing.T) {
	input := "upn,department\na@x.com,Eng\n,Sales\nb@x.com,Ops\n"

	rows, rowErrs, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Len(t, rowErrs, 1)
	assert.Contains(t, rowErrs[0].Error(), "line 3")
}

func TestParseCSVEmptyFile(t *testing.T) {
	_, _, err := ParseCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestRunCreatesAndLicenses(t *testing.T) {
	api := &fakeDirectory{skus: fakeSkus()}
	p := New(api)

	rows := []Row{{UserPrincipalName: "alice@contoso.com", DisplayName: "Alice", AccountEnabled: true}}
	agg, err := p.Run(context.Background(), rows, fastOpts())
	require.NoError(t, err)

	outcomes := agg.Outcomes()
	require.Len(t, outcomes, 1)
	assert.Equal(t, reconcile.StatusSuccess, outcomes[0].Status)
	assert.Len(t, outcomes[0].Credential, 16)

	require.Len(t, api.created, 1)
	assert.Equal(t, outcomes[0].Credential, api.created[0].PasswordProfile.Password)
	assert.Equal(t, "id-alice@contoso.com", api.lastAssignID)
	require.Len(t, api.lastRequest.AddLicenses, 1)
	assert.Equal(t, "sku-e3", api.lastRequest.AddLicenses[0].SkuID)
}

func TestRunCredentialsDifferPerRow(t *testing.T) {
	api := &fakeDirectory{skus: fakeSkus()}
	p := New(api)

	rows := []Row{
		{UserPrincipalName: "a@x.com", DisplayName: "A", AccountEnabled: true},
		{UserPrincipalName: "b@x.com", DisplayName: "B", AccountEnabled: true},
	}
	agg, err := p.Run(context.Background(), rows, fastOpts())
	require.NoError(t, err)

	outcomes := agg.Outcomes()
	require.Len(t, outcomes, 2)
	assert.NotEqual(t, outcomes[0].Credential, outcomes[1].Credential)
}

func TestRunCreateFailureIsolated(t *testing.T) {
	api := &fakeDirectory{
		skus: fakeSkus(),
		createErrs: map[string]error{
			"a@x.com": &directory.APIError{StatusCode: 409, Code: directory.CodeConflict, Message: "exists"},
		},
	}
	p := New(api)

	rows := []Row{
		{UserPrincipalName: "a@x.com", DisplayName: "A", AccountEnabled: true},
		{UserPrincipalName: "b@x.com", DisplayName: "B", AccountEnabled: true},
	}
	agg, err := p.Run(context.Background(), rows, fastOpts())
	require.NoError(t, err)

	outcomes := agg.Outcomes()
	require.Len(t, outcomes, 2)
	assert.Equal(t, reconcile.StatusFailed, outcomes[0].Status)
	assert.Contains(t, outcomes[0].ErrorDetail, "exists")
	assert.Equal(t, reconcile.StatusSuccess, outcomes[1].Status)
	require.Len(t, api.created, 1)
}

func TestRunDryRunCreatesNothing(t *testing.T) {
	api := &fakeDirectory{skus: fakeSkus()}
	p := New(api)

	opts := fastOpts()
	opts.DryRun = true
	rows := []Row{{UserPrincipalName: "a@x.com", DisplayName: "A", AccountEnabled: true}}
	agg, err := p.Run(context.Background(), rows, opts)
	require.NoError(t, err)

	outcomes := agg.Outcomes()
	require.Len(t, outcomes, 1)
	assert.Equal(t, reconcile.StatusDryRun, outcomes[0].Status)
	assert.Empty(t, api.created)
	assert.Zero(t, api.assignCalls)
}

func TestRunUnknownSkuFatal(t *testing.T) {
	api := &fakeDirectory{skus: fakeSkus()}
	p := New(api)

	opts := fastOpts()
	opts.TargetSkuTokens = []string{"NOPE"}
	_, err := p.Run(context.Background(), []Row{{UserPrincipalName: "a@x.com"}}, opts)
	assert.Error(t, err)
}

func TestRunSourceColumnsEchoed(t *testing.T) {
	api := &fakeDirectory{skus: fakeSkus()}
	p := New(api)

	rows := []Row{{
		UserPrincipalName: "a@x.com",
		DisplayName:       "A",
		AccountEnabled:    true,
		Extra:             map[string]string{"CostCenter": "CC-42"},
	}}
	agg, err := p.Run(context.Background(), rows, fastOpts())
	require.NoError(t, err)

	outcomes := agg.Outcomes()
	require.Len(t, outcomes, 1)
	assert.Equal(t, "CC-42", outcomes[0].Source["CostCenter"])
	assert.Equal(t, map[string]string{"CostCenter": "CC-42"}, api.created[0].OtherAttributes)
}
