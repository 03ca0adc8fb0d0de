// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package ci renders the GitHub Actions workflow that re-deploys the
// application whenever a commit lands on main.
package ci

import (
	"bytes"
	"os"
	"path/filepath"
	"text/template"

	"github.com/juju/errors"
)

// WorkflowPath is where the rendered workflow lives in the application
// repository.
const WorkflowPath = ".github/workflows/deploy.yml"

// WorkflowParams fills the workflow template.
type WorkflowParams struct {
	// AppName names the workflow and its job.
	AppName string

	// ConfigPath is the deployment config file in the repository.
	ConfigPath string

	// Image is the image reference released on each run. It may carry
	// GitHub expression syntax, e.g. a ${{ github.sha }} tag.
	Image string
}

// Validate checks the workflow parameters.
func (p WorkflowParams) Validate() error {
	if p.AppName == "" {
		return errors.NotValidf("empty AppName")
	}
	if p.ConfigPath == "" {
		return errors.NotValidf("empty ConfigPath")
	}
	if p.Image == "" {
		return errors.NotValidf("empty Image")
	}
	return nil
}

// The template uses [[ ]] delimiters so that GitHub's own ${{ }}
// expressions pass through untouched.
var workflowTemplate = template.Must(template.New("workflow").Delims("[[", "]]").Parse(`name: deploy [[.AppName]]

on:
  push:
    branches:
      - main
  workflow_dispatch: {}

jobs:
  deploy:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v4

      - uses: azure/login@v2
        with:
          creds: ${{ secrets.AZURE_CREDENTIALS }}

      - uses: actions/setup-go@v5
        with:
          go-version: "1.23"

      - name: Install azapp
        run: go install github.com/canonical/azapp/cmd/azapp@latest

      - name: Release image
        run: azapp release --config [[.ConfigPath]] --image "[[.Image]]"
`))

// RenderWorkflow renders the deploy workflow.
func RenderWorkflow(params WorkflowParams) ([]byte, error) {
	if err := params.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	var buf bytes.Buffer
	if err := workflowTemplate.Execute(&buf, params); err != nil {
		return nil, errors.Annotate(err, "rendering workflow")
	}
	return buf.Bytes(), nil
}

// WriteWorkflow renders the workflow and writes it under dir at
// WorkflowPath, creating the directories as needed.
func WriteWorkflow(dir string, params WorkflowParams) error {
	data, err := RenderWorkflow(params)
	if err != nil {
		return errors.Trace(err)
	}
	path := filepath.Join(dir, filepath.FromSlash(WorkflowPath))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(os.WriteFile(path, data, 0644))
}
