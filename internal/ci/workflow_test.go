// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package ci

import (
	"os"
	"path/filepath"

	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"
	"gopkg.in/yaml.v3"
)

type workflowSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&workflowSuite{})

func validParams() WorkflowParams {
	return WorkflowParams{
		AppName:    "recipes",
		ConfigPath: "azapp.yaml",
		Image:      "ghcr.io/example/recipes:${{ github.sha }}",
	}
}

func (s *workflowSuite) TestRenderWorkflow(c *gc.C) {
	data, err := RenderWorkflow(validParams())
	c.Assert(err, jc.ErrorIsNil)

	content := string(data)
	c.Check(content, jc.Contains, "name: deploy recipes")
	c.Check(content, jc.Contains, "workflow_dispatch: {}")
	c.Check(content, jc.Contains, "creds: ${{ secrets.AZURE_CREDENTIALS }}")
	c.Check(content, jc.Contains,
		`azapp release --config azapp.yaml --image "ghcr.io/example/recipes:${{ github.sha }}"`)
}

func (s *workflowSuite) TestRenderWorkflowIsYAML(c *gc.C) {
	data, err := RenderWorkflow(validParams())
	c.Assert(err, jc.ErrorIsNil)

	var doc map[string]interface{}
	err = yaml.Unmarshal(data, &doc)
	c.Assert(err, jc.ErrorIsNil)

	jobs := doc["jobs"].(map[string]interface{})
	deploy := jobs["deploy"].(map[string]interface{})
	c.Check(deploy["runs-on"], gc.Equals, "ubuntu-latest")
	steps := deploy["steps"].([]interface{})
	c.Check(steps, gc.HasLen, 5)
}

func (s *workflowSuite) TestRenderWorkflowValidates(c *gc.C) {
	params := validParams()
	params.Image = ""
	_, err := RenderWorkflow(params)
	c.Assert(err, gc.ErrorMatches, "empty Image not valid")
}

func (s *workflowSuite) TestWriteWorkflow(c *gc.C) {
	dir := c.MkDir()
	err := WriteWorkflow(dir, validParams())
	c.Assert(err, jc.ErrorIsNil)

	data, err := os.ReadFile(filepath.Join(dir, ".github", "workflows", "deploy.yml"))
	c.Assert(err, jc.ErrorIsNil)
	c.Check(string(data), jc.Contains, "name: deploy recipes")
}
