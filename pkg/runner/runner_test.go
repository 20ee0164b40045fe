package runner

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entraops/lictl/internal/logger"
	"github.com/entraops/lictl/pkg/catalog"
	"github.com/entraops/lictl/pkg/directory"
	"github.com/entraops/lictl/pkg/identity"
	"github.com/entraops/lictl/pkg/reconcile"
)

// fakeDirectory is an in-memory DirectoryAPI with scripted failures.
type fakeDirectory struct {
	skus       []directory.SubscribedSku
	principals []directory.Principal

	subscriptionsErr error
	queryErr         error

	assignErrs  map[string][]error // principal id -> per-attempt errors
	assignCalls map[string]int
	requests    map[string][]*directory.AssignLicenseRequest
}

func (f *fakeDirectory) ListSubscriptions(ctx context.Context) ([]directory.SubscribedSku, error) {
	return f.skus, f.subscriptionsErr
}

func (f *fakeDirectory) QueryPrincipals(ctx context.Context, identifiers []string) ([]directory.Principal, error) {
	return f.principals, f.queryErr
}

func (f *fakeDirectory) AssignLicense(ctx context.Context, principalID string, req *directory.AssignLicenseRequest) (*directory.Principal, error) {
	if f.assignCalls == nil {
		f.assignCalls = make(map[string]int)
		f.requests = make(map[string][]*directory.AssignLicenseRequest)
	}
	call := f.assignCalls[principalID]
	f.assignCalls[principalID]++
	f.requests[principalID] = append(f.requests[principalID], req)

	if errs := f.assignErrs[principalID]; call < len(errs) && errs[call] != nil {
		return nil, errs[call]
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
		{
			SkuID:         "sku-e5",
			SkuPartNumber: "ENTERPRISEPREMIUM",
			ServicePlans: []directory.ServicePlan{
				{ServicePlanID: "plan-yammer", ServicePlanName: "YAMMER_ENTERPRISE"},
				{ServicePlanID: "plan-teams", ServicePlanName: "TEAMS1"},
			},
		},
	}
}

func fastOpts() Options {
	return Options{
		TargetSkuTokens: []string{"ENTERPRISEPREMIUM"},
		Attempts:        3,
		RetryDelay:      time.Millisecond,
	}
}

func TestRunNoIdentifiersFatal(t *testing.T) {
	r := New(&fakeDirectory{skus: fakeSkus()}, nil)

	_, err := r.Run(context.Background(), identity.Input{}, fastOpts())

	assert.ErrorIs(t, err, ErrNoIdentifiers)
}

func TestRunCatalogUnreachableFatal(t *testing.T) {
	api := &fakeDirectory{subscriptionsErr: assert.AnError}
	r := New(api, nil)

	_, err := r.Run(context.Background(), identity.Input{Literals: []string{"a@x.com"}}, fastOpts())

	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestRunUnknownTargetSkuFatal(t *testing.T) {
	api := &fakeDirectory{skus: fakeSkus()}
	r := New(api, nil)

	opts := fastOpts()
	opts.TargetSkuTokens = []string{"NOPE"}
	_, err := r.Run(context.Background(), identity.Input{Literals: []string{"a@x.com"}}, opts)

	var lookupErr *catalog.LookupError
	require.ErrorAs(t, err, &lookupErr)
}

func TestRunAssignsMissingLicense(t *testing.T) {
	api := &fakeDirectory{
		skus: fakeSkus(),
		principals: []directory.Principal{
			{ID: "p-1", UserPrincipalName: "alice@contoso.com"},
		},
	}
	r := New(api, nil)

	agg, err := r.Run(context.Background(), identity.Input{Literals: []string{"alice@contoso.com"}}, fastOpts())
	require.NoError(t, err)

	outcomes := agg.Outcomes()
	require.Len(t, outcomes, 1)
	assert.Equal(t, reconcile.StatusSuccess, outcomes[0].Status)
	require.Len(t, api.requests["p-1"], 1)
	assert.Equal(t, "sku-e5", api.requests["p-1"][0].AddLicenses[0].SkuID)
}

func TestRunSkipsPrincipalAlreadyInDesiredState(t *testing.T) {
	api := &fakeDirectory{
		skus: fakeSkus(),
		principals: []directory.Principal{
			{
				ID:                "p-1",
				UserPrincipalName: "alice@contoso.com",
				AssignedLicenses:  []directory.AssignedLicense{{SkuID: "sku-e5"}},
			},
		},
	}
	r := New(api, nil)

	agg, err := r.Run(context.Background(), identity.Input{Literals: []string{"alice@contoso.com"}}, fastOpts())
	require.NoError(t, err)

	outcomes := agg.Outcomes()
	require.Len(t, outcomes, 1)
	assert.Equal(t, reconcile.StatusSkippedNoOp, outcomes[0].Status)
	assert.Zero(t, api.assignCalls["p-1"])
}

func TestRunUpgradeWithPreserve(t *testing.T) {
	api := &fakeDirectory{
		skus: fakeSkus(),
		principals: []directory.Principal{
			{
				ID:                "p-1",
				UserPrincipalName: "alice@contoso.com",
				AssignedLicenses: []directory.AssignedLicense{
					{SkuID: "sku-e3", DisabledPlans: []string{"plan-yammer"}},
				},
			},
		},
	}
	r := New(api, nil)

	opts := fastOpts()
	opts.RemoveSkuTokens = []string{"ENTERPRISEPACK"}
	opts.DisablePlanTokens = []string{"TEAMS1"}
	opts.PreserveDisabled = true

	agg, err := r.Run(context.Background(), identity.Input{Literals: []string{"alice@contoso.com"}}, opts)
	require.NoError(t, err)

	outcomes := agg.Outcomes()
	require.Len(t, outcomes, 1)
	require.Equal(t, reconcile.StatusSuccess, outcomes[0].Status)

	req := api.requests["p-1"][0]
	assert.Equal(t, []string{"sku-e3"}, req.RemoveLicenses)
	require.Len(t, req.AddLicenses, 1)
	assert.Equal(t, "sku-e5", req.AddLicenses[0].SkuID)
	assert.Equal(t, []string{"plan-teams", "plan-yammer"}, req.AddLicenses[0].DisabledPlans)
}

func TestRunFailureIsolation(t *testing.T) {
	api := &fakeDirectory{
		skus: fakeSkus(),
		principals: []directory.Principal{
			{ID: "p-1", UserPrincipalName: "alice@contoso.com"},
			{ID: "p-2", UserPrincipalName: "bob@contoso.com"},
		},
		assignErrs: map[string][]error{
			"p-1": {&directory.APIError{StatusCode: 400, Code: directory.CodeValidationError, Message: "bad"}},
		},
	}
	r := New(api, nil)

	agg, err := r.Run(context.Background(),
		identity.Input{Literals: []string{"alice@contoso.com", "bob@contoso.com"}}, fastOpts())
	require.NoError(t, err)

	outcomes := agg.Outcomes()
	require.Len(t, outcomes, 2)
	assert.Equal(t, reconcile.StatusFailed, outcomes[0].Status)
	assert.Contains(t, outcomes[0].ErrorDetail, "bad")
	assert.Equal(t, reconcile.StatusSuccess, outcomes[1].Status)
}

func TestRunTransientRetryThenSuccess(t *testing.T) {
	throttle := &directory.APIError{StatusCode: 429, Code: directory.CodeRateLimited, Message: "throttled"}
	api := &fakeDirectory{
		skus: fakeSkus(),
		principals: []directory.Principal{
			{ID: "p-1", UserPrincipalName: "alice@contoso.com"},
		},
		assignErrs: map[string][]error{
			"p-1": {throttle, throttle, nil},
		},
	}
	r := New(api, nil)

	agg, err := r.Run(context.Background(), identity.Input{Literals: []string{"alice@contoso.com"}}, fastOpts())
	require.NoError(t, err)

	outcomes := agg.Outcomes()
	require.Len(t, outcomes, 1)
	assert.Equal(t, reconcile.StatusSuccess, outcomes[0].Status)
	assert.Equal(t, 3, outcomes[0].Attempts)
}

func TestRunMissingPrincipalReported(t *testing.T) {
	api := &fakeDirectory{skus: fakeSkus()}
	r := New(api, nil)

	agg, err := r.Run(context.Background(), identity.Input{Literals: []string{"ghost@contoso.com"}}, fastOpts())
	require.NoError(t, err)

	outcomes := agg.Outcomes()
	require.Len(t, outcomes, 1)
	assert.Equal(t, reconcile.StatusFailed, outcomes[0].Status)
	assert.Contains(t, outcomes[0].ErrorDetail, "not found")
}

func TestRunDryRun(t *testing.T) {
	api := &fakeDirectory{
		skus: fakeSkus(),
		principals: []directory.Principal{
			{ID: "p-1", UserPrincipalName: "alice@contoso.com"},
		},
	}
	r := New(api, nil)

	opts := fastOpts()
	opts.DryRun = true
	agg, err := r.Run(context.Background(), identity.Input{Literals: []string{"alice@contoso.com"}}, opts)
	require.NoError(t, err)

	outcomes := agg.Outcomes()
	require.Len(t, outcomes, 1)
	assert.Equal(t, reconcile.StatusDryRun, outcomes[0].Status)
	assert.Len(t, outcomes[0].Plan.AddAssignments, 1)
	assert.Zero(t, api.assignCalls["p-1"])
}

func TestRunSelectorChoosesTargets(t *testing.T) {
	api := &fakeDirectory{
		skus: fakeSkus(),
		principals: []directory.Principal{
			{ID: "p-1", UserPrincipalName: "alice@contoso.com"},
		},
	}
	r := New(api, StaticSelector{SkuTokens: []string{"ENTERPRISEPACK"}})

	opts := fastOpts()
	opts.TargetSkuTokens = nil
	agg, err := r.Run(context.Background(), identity.Input{Literals: []string{"alice@contoso.com"}}, opts)
	require.NoError(t, err)

	req := api.requests["p-1"][0]
	require.Len(t, req.AddLicenses, 1)
	assert.Equal(t, "sku-e3", req.AddLicenses[0].SkuID)
	assert.NotNil(t, agg)
}

func TestRunDuplicateSkuTokensSingleAssignment(t *testing.T) {
	api := &fakeDirectory{
		skus: fakeSkus(),
		principals: []directory.Principal{
			{ID: "p-1", UserPrincipalName: "alice@contoso.com"},
		},
	}
	r := New(api, nil)

	// A case variant and the raw id all point at the same SKU; the
	// request must carry it once.
	opts := fastOpts()
	opts.TargetSkuTokens = []string{"ENTERPRISEPREMIUM", "enterprisepremium", "sku-e5"}
	agg, err := r.Run(context.Background(), identity.Input{Literals: []string{"alice@contoso.com"}}, opts)
	require.NoError(t, err)

	req := api.requests["p-1"][0]
	require.Len(t, req.AddLicenses, 1)
	assert.Equal(t, "sku-e5", req.AddLicenses[0].SkuID)
	assert.Equal(t, reconcile.StatusSuccess, agg.Outcomes()[0].Status)
}

func TestRunLogsTargetSelection(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWithWriter(&buf, "DEBUG", "json", false)
	defer logger.InitWithWriter(io.Discard, "INFO", "text", false)

	api := &fakeDirectory{
		skus: fakeSkus(),
		principals: []directory.Principal{
			{ID: "p-1", UserPrincipalName: "alice@contoso.com"},
		},
	}
	r := New(api, nil)

	opts := fastOpts()
	opts.DisablePlanTokens = []string{"TEAMS1"}
	_, err := r.Run(context.Background(), identity.Input{Literals: []string{"alice@contoso.com"}}, opts)
	require.NoError(t, err)

	logs := buf.String()
	assert.Contains(t, logs, `"sku":"ENTERPRISEPREMIUM"`)
	assert.Contains(t, logs, `"plan":"TEAMS1"`)
}

func TestStaticSelectorUnknownSku(t *testing.T) {
	s := StaticSelector{SkuTokens: []string{"NOPE"}}
	_, err := s.SelectSkus(fakeSkus())

	var lookupErr *catalog.LookupError
	require.ErrorAs(t, err, &lookupErr)
}

func TestStaticSelectorPlansScoped(t *testing.T) {
	s := StaticSelector{PlanTokens: []string{"TEAMS1", "YAMMER_ENTERPRISE"}}
	skus := fakeSkus()

	plans, err := s.SelectPlans(skus[0], skus[0].ServicePlans)
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, "plan-yammer", plans[0].ServicePlanID)
}
