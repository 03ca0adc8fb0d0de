// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package azure

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/appcontainers/armappcontainers/v2"
	"github.com/juju/errors"
)

// EnvVar is one environment variable of the application container.
// Either Value or SecretRef is set; SecretRef names a container app
// secret so the value never appears in plain text in the app model.
type EnvVar struct {
	Name      string
	Value     string
	SecretRef string
}

// AppParams describes the container app workload.
type AppParams struct {
	ResourceGroup string
	Name          string
	Location      string
	EnvironmentID string
	Image         string
	TargetPort    int32
	MinReplicas   int32
	MaxReplicas   int32
	CPUCores      float64
	Memory        string
	EnvVars       []EnvVar
	Secrets       map[string]string
}

// App is the subset of the deployed application state the tool reports.
type App struct {
	ResourceID        string
	FQDN              string
	Image             string
	EnvVarNames       []string
	ProvisioningState string
}

// CreateOrUpdateApp deploys the application container, replacing the
// active revision wholesale, and returns the resulting app state.
func (p *Provider) CreateOrUpdateApp(ctx context.Context, params AppParams) (App, error) {
	logger.Infof("deploying container app %q with image %q", params.Name, params.Image)

	var secrets []*armappcontainers.Secret
	for name, value := range params.Secrets {
		secrets = append(secrets, &armappcontainers.Secret{
			Name:  to.Ptr(name),
			Value: to.Ptr(value),
		})
	}
	var env []*armappcontainers.EnvironmentVar
	for _, v := range params.EnvVars {
		ev := &armappcontainers.EnvironmentVar{Name: to.Ptr(v.Name)}
		if v.SecretRef != "" {
			ev.SecretRef = to.Ptr(v.SecretRef)
		} else {
			ev.Value = to.Ptr(v.Value)
		}
		env = append(env, ev)
	}

	app := armappcontainers.ContainerApp{
		Location: to.Ptr(params.Location),
		Properties: &armappcontainers.ContainerAppProperties{
			ManagedEnvironmentID: to.Ptr(params.EnvironmentID),
			Configuration: &armappcontainers.Configuration{
				Ingress: &armappcontainers.Ingress{
					External:   to.Ptr(true),
					TargetPort: to.Ptr(params.TargetPort),
				},
				Secrets: secrets,
			},
			Template: &armappcontainers.Template{
				Containers: []*armappcontainers.Container{{
					Name:  to.Ptr(params.Name),
					Image: to.Ptr(params.Image),
					Env:   env,
					Resources: &armappcontainers.ContainerResources{
						CPU:    to.Ptr(params.CPUCores),
						Memory: to.Ptr(params.Memory),
					},
				}},
				Scale: &armappcontainers.Scale{
					MinReplicas: to.Ptr(params.MinReplicas),
					MaxReplicas: to.Ptr(params.MaxReplicas),
				},
			},
		},
	}
	var result App
	err := p.callAPI(func() error {
		poller, err := p.apps.BeginCreateOrUpdate(ctx, params.ResourceGroup, params.Name, app, nil)
		if err != nil {
			return err
		}
		resp, err := poller.PollUntilDone(ctx, nil)
		if err != nil {
			return err
		}
		result = appFromResponse(resp.ContainerApp)
		return nil
	})
	if err != nil {
		return App{}, errors.Annotatef(err, "deploying app %q", params.Name)
	}
	return result, nil
}

// GetApp returns the deployed application state.
func (p *Provider) GetApp(ctx context.Context, resourceGroup, name string) (App, error) {
	var app App
	err := p.callAPI(func() error {
		resp, err := p.apps.Get(ctx, resourceGroup, name, nil)
		if err != nil {
			return err
		}
		app = appFromResponse(resp.ContainerApp)
		return nil
	})
	if err != nil {
		if IsNotFound(err) {
			return App{}, errors.NotFoundf("app %q", name)
		}
		return App{}, errors.Annotatef(err, "getting app %q", name)
	}
	return app, nil
}

// UpdateAppImage points the deployed application at a new container
// image. The platform replaces the active revision wholesale; all other
// configuration is preserved from the current app model.
func (p *Provider) UpdateAppImage(ctx context.Context, resourceGroup, name, image string) error {
	var current armappcontainers.ContainerApp
	err := p.callAPI(func() error {
		resp, err := p.apps.Get(ctx, resourceGroup, name, nil)
		if err != nil {
			return err
		}
		current = resp.ContainerApp
		return nil
	})
	if err != nil {
		if IsNotFound(err) {
			return errors.NotFoundf("app %q", name)
		}
		return errors.Annotatef(err, "getting app %q", name)
	}
	if current.Properties == nil || current.Properties.Template == nil ||
		len(current.Properties.Template.Containers) == 0 {
		return errors.Errorf("app %q has no containers", name)
	}

	logger.Infof("updating app %q to image %q", name, image)
	current.Properties.Template.Containers[0].Image = to.Ptr(image)
	err = p.callAPI(func() error {
		poller, err := p.apps.BeginUpdate(ctx, resourceGroup, name, current, nil)
		if err != nil {
			return err
		}
		_, err = poller.PollUntilDone(ctx, nil)
		return err
	})
	return errors.Annotatef(err, "updating app %q", name)
}

func appFromResponse(app armappcontainers.ContainerApp) App {
	result := App{ResourceID: toValue(app.ID)}
	props := app.Properties
	if props == nil {
		return result
	}
	result.ProvisioningState = string(toValue(props.ProvisioningState))
	if props.Configuration != nil && props.Configuration.Ingress != nil {
		result.FQDN = toValue(props.Configuration.Ingress.Fqdn)
	}
	if props.Template != nil && len(props.Template.Containers) > 0 {
		container := props.Template.Containers[0]
		result.Image = toValue(container.Image)
		for _, ev := range container.Env {
			result.EnvVarNames = append(result.EnvVarNames, toValue(ev.Name))
		}
	}
	return result
}
