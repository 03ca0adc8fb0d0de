// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package azure wraps the Azure Resource Manager clients used to
// provision and operate a containerized web application: resource
// groups, a PostgreSQL flexible server, a Container Apps environment
// and app, storage accounts, and monitoring resources.
package azure

import (
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/cloud"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/monitor/azquery"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/appcontainers/armappcontainers/v2"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/applicationinsights/armapplicationinsights"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/monitor/armmonitor"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/operationalinsights/armoperationalinsights"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/postgresql/armpostgresqlflexibleservers"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/storage/armstorage"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
)

var logger = loggo.GetLogger("azapp.provider.azure")

// ProviderParams configures a new Provider.
type ProviderParams struct {
	// SubscriptionID is the Azure subscription hosting all resources.
	SubscriptionID string

	// Credential authenticates all API calls. If nil, the default
	// credential chain is used.
	Credential azcore.TokenCredential

	// Clock is used when retrying throttled API calls.
	Clock clock.Clock

	// Endpoint overrides the Resource Manager endpoint. It is used by
	// tests to point the clients at a local server.
	Endpoint string
}

// Validate checks the provider parameters.
func (p ProviderParams) Validate() error {
	if p.SubscriptionID == "" {
		return errors.NotValidf("empty SubscriptionID")
	}
	if p.Clock == nil {
		return errors.NotValidf("nil Clock")
	}
	return nil
}

// Provider holds the Azure SDK clients for one subscription.
type Provider struct {
	sub   string
	clock clock.Clock

	resourceGroups *armresources.ResourceGroupsClient

	servers   *armpostgresqlflexibleservers.ServersClient
	firewalls *armpostgresqlflexibleservers.FirewallRulesClient
	databases *armpostgresqlflexibleservers.DatabasesClient

	environments *armappcontainers.ManagedEnvironmentsClient
	apps         *armappcontainers.ContainerAppsClient

	workspaces *armoperationalinsights.WorkspacesClient
	sharedKeys *armoperationalinsights.SharedKeysClient

	accounts       *armstorage.AccountsClient
	blobContainers *armstorage.BlobContainersClient

	components   *armapplicationinsights.ComponentsClient
	metricAlerts *armmonitor.MetricAlertsClient

	logs *azquery.LogsClient
}

// NewProvider constructs the Azure SDK clients.
func NewProvider(params ProviderParams) (*Provider, error) {
	if err := params.Validate(); err != nil {
		return nil, errors.Annotate(err, "validating provider params")
	}

	cred := params.Credential
	if cred == nil {
		var err error
		cred, err = azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, errors.Annotate(err, "building default credential")
		}
	}

	opts := &arm.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			// Throttling (429) is retried by callAPI with its own
			// backoff; the transport only retries transient failures.
			Retry: policy.RetryOptions{
				StatusCodes: []int{
					http.StatusRequestTimeout,
					http.StatusInternalServerError,
					http.StatusBadGateway,
					http.StatusServiceUnavailable,
					http.StatusGatewayTimeout,
				},
			},
		},
	}
	if params.Endpoint != "" {
		opts.Cloud = cloud.Configuration{
			Services: map[cloud.ServiceName]cloud.ServiceConfiguration{
				cloud.ResourceManager: {
					Endpoint: params.Endpoint,
					Audience: "https://management.azure.com/",
				},
				azquery.ServiceNameLogs: {
					Endpoint: params.Endpoint,
					Audience: "https://api.loganalytics.io/",
				},
			},
		}
		opts.InsecureAllowCredentialWithHTTP = true
	}

	p := &Provider{sub: params.SubscriptionID, clock: params.Clock}

	var err error
	if p.resourceGroups, err = armresources.NewResourceGroupsClient(p.sub, cred, opts); err != nil {
		return nil, errors.Trace(err)
	}
	if p.servers, err = armpostgresqlflexibleservers.NewServersClient(p.sub, cred, opts); err != nil {
		return nil, errors.Trace(err)
	}
	if p.firewalls, err = armpostgresqlflexibleservers.NewFirewallRulesClient(p.sub, cred, opts); err != nil {
		return nil, errors.Trace(err)
	}
	if p.databases, err = armpostgresqlflexibleservers.NewDatabasesClient(p.sub, cred, opts); err != nil {
		return nil, errors.Trace(err)
	}
	if p.environments, err = armappcontainers.NewManagedEnvironmentsClient(p.sub, cred, opts); err != nil {
		return nil, errors.Trace(err)
	}
	if p.apps, err = armappcontainers.NewContainerAppsClient(p.sub, cred, opts); err != nil {
		return nil, errors.Trace(err)
	}
	if p.workspaces, err = armoperationalinsights.NewWorkspacesClient(p.sub, cred, opts); err != nil {
		return nil, errors.Trace(err)
	}
	if p.sharedKeys, err = armoperationalinsights.NewSharedKeysClient(p.sub, cred, opts); err != nil {
		return nil, errors.Trace(err)
	}
	if p.accounts, err = armstorage.NewAccountsClient(p.sub, cred, opts); err != nil {
		return nil, errors.Trace(err)
	}
	if p.blobContainers, err = armstorage.NewBlobContainersClient(p.sub, cred, opts); err != nil {
		return nil, errors.Trace(err)
	}
	if p.components, err = armapplicationinsights.NewComponentsClient(p.sub, cred, opts); err != nil {
		return nil, errors.Trace(err)
	}
	if p.metricAlerts, err = armmonitor.NewMetricAlertsClient(p.sub, cred, opts); err != nil {
		return nil, errors.Trace(err)
	}
	logsOpts := &azquery.LogsClientOptions{ClientOptions: opts.ClientOptions}
	if p.logs, err = azquery.NewLogsClient(cred, logsOpts); err != nil {
		return nil, errors.Trace(err)
	}
	return p, nil
}

// NewCredential returns a token credential for the given service
// principal details, falling back to the default credential chain when
// they are empty.
func NewCredential(tenantID, clientID, clientSecret string) (azcore.TokenCredential, error) {
	if tenantID == "" && clientID == "" && clientSecret == "" {
		cred, err := azidentity.NewDefaultAzureCredential(nil)
		return cred, errors.Trace(err)
	}
	cred, err := azidentity.NewClientSecretCredential(tenantID, clientID, clientSecret, nil)
	return cred, errors.Trace(err)
}

func toValue[T any](v *T) T {
	if v == nil {
		var zero T
		return zero
	}
	return *v
}
