// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package azure

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/applicationinsights/armapplicationinsights"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/monitor/armmonitor"
	"github.com/juju/errors"
)

// ContainerAppMetricNamespace is the metric namespace of Container Apps
// workloads.
const ContainerAppMetricNamespace = "Microsoft.App/containerApps"

// Metric names published by the Container Apps platform.
const (
	MetricCPUUsage    = "UsageNanoCores"
	MetricMemoryUsage = "WorkingSetBytes"
)

// EnsureInsights creates the Application Insights component, linked to
// the given Log Analytics workspace, and returns its instrumentation key.
func (p *Provider) EnsureInsights(ctx context.Context, resourceGroup, name, location, workspaceID string) (string, error) {
	var key string
	err := p.callAPI(func() error {
		resp, err := p.components.CreateOrUpdate(ctx, resourceGroup, name, armapplicationinsights.Component{
			Location: to.Ptr(location),
			Kind:     to.Ptr("web"),
			Properties: &armapplicationinsights.ComponentProperties{
				ApplicationType:     to.Ptr(armapplicationinsights.ApplicationTypeWeb),
				WorkspaceResourceID: to.Ptr(workspaceID),
			},
		}, nil)
		if err != nil {
			return err
		}
		if resp.Properties != nil {
			key = toValue(resp.Properties.InstrumentationKey)
		}
		return nil
	})
	if err != nil {
		return "", errors.Annotatef(err, "creating application insights %q", name)
	}
	return key, nil
}

// MetricAlertParams describes a single static-threshold metric alert
// rule scoped to one resource.
type MetricAlertParams struct {
	ResourceGroup string
	Name          string
	Description   string
	// Scope is the resource ID the rule monitors. Alert rules survive
	// revision replacement because they reference the app resource,
	// not a revision.
	Scope      string
	MetricName string
	// Threshold is in the metric's raw unit (nanocores or bytes).
	Threshold float64
	// WindowSize is an ISO 8601 duration, e.g. "PT5M".
	WindowSize string
	Severity   int32
}

// EnsureMetricAlert creates or updates the metric alert rule. The rule
// fires when the metric's average over the window exceeds the threshold,
// evaluated every minute.
func (p *Provider) EnsureMetricAlert(ctx context.Context, params MetricAlertParams) error {
	logger.Debugf("ensuring metric alert %q on %q", params.Name, params.MetricName)
	rule := armmonitor.MetricAlertResource{
		// Metric alert rules are a global resource type.
		Location: to.Ptr("global"),
		Properties: &armmonitor.MetricAlertProperties{
			Description:         to.Ptr(params.Description),
			Severity:            to.Ptr(params.Severity),
			Enabled:             to.Ptr(true),
			AutoMitigate:        to.Ptr(true),
			Scopes:              []*string{to.Ptr(params.Scope)},
			EvaluationFrequency: to.Ptr("PT1M"),
			WindowSize:          to.Ptr(params.WindowSize),
			Criteria: &armmonitor.MetricAlertSingleResourceMultipleMetricCriteria{
				ODataType: to.Ptr(armmonitor.OdatatypeMicrosoftAzureMonitorSingleResourceMultipleMetricCriteria),
				AllOf: []*armmonitor.MetricCriteria{{
					CriterionType:   to.Ptr(armmonitor.CriterionTypeStaticThresholdCriterion),
					Name:            to.Ptr("criterion1"),
					MetricName:      to.Ptr(params.MetricName),
					MetricNamespace: to.Ptr(ContainerAppMetricNamespace),
					Operator:        to.Ptr(armmonitor.OperatorGreaterThan),
					Threshold:       to.Ptr(params.Threshold),
					TimeAggregation: to.Ptr(armmonitor.AggregationTypeEnumAverage),
				}},
			},
		},
	}
	err := p.callAPI(func() error {
		_, err := p.metricAlerts.CreateOrUpdate(ctx, params.ResourceGroup, params.Name, rule, nil)
		return err
	})
	return errors.Annotatef(err, "creating metric alert %q", params.Name)
}
