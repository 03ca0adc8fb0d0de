// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package config_test

import (
	"os"
	"path/filepath"

	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/canonical/azapp/internal/config"
)

type configSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&configSuite{})

type attrs map[string]interface{}

func minimalAttrs(extra attrs) attrs {
	result := attrs{
		"name":            "recipes",
		"subscription-id": "22222222-2222-2222-2222-222222222222",
		"resource-group":  "recipes-rg",
		"location":        "westeurope",
		"image":           "ghcr.io/example/recipes:1.5",
	}
	for k, v := range extra {
		result[k] = v
	}
	return result
}

func (s *configSuite) assertInvalid(c *gc.C, extra attrs, expect string) {
	_, err := config.New(minimalAttrs(extra))
	c.Assert(err, gc.ErrorMatches, expect)
}

func (s *configSuite) TestMinimal(c *gc.C) {
	cfg, err := config.New(minimalAttrs(nil))
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(cfg.Name(), gc.Equals, "recipes")
	c.Assert(cfg.ResourceGroup(), gc.Equals, "recipes-rg")
	c.Assert(cfg.Location(), gc.Equals, "westeurope")
	c.Assert(cfg.Image(), gc.Equals, "ghcr.io/example/recipes:1.5")
}

func (s *configSuite) TestDefaults(c *gc.C) {
	cfg, err := config.New(minimalAttrs(nil))
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(cfg.TargetPort(), gc.Equals, 8080)
	c.Assert(cfg.MinReplicas(), gc.Equals, 1)
	c.Assert(cfg.MaxReplicas(), gc.Equals, 1)
	c.Assert(cfg.CPU(), gc.Equals, "0.5")
	c.Assert(cfg.Memory(), gc.Equals, "1Gi")
	c.Assert(cfg.DBAdminUser(), gc.Equals, "dbadmin")
	c.Assert(cfg.DBVersion(), gc.Equals, "14")
	c.Assert(cfg.Timezone(), gc.Equals, "UTC")
	c.Assert(cfg.AllowedHosts(), gc.Equals, "*")
	c.Assert(cfg.Debug(), jc.IsFalse)
	c.Assert(cfg.EnableSignup(), jc.IsFalse)
	c.Assert(cfg.CPUAlertPercent(), gc.Equals, 80)
	c.Assert(cfg.MemoryAlertPercent(), gc.Equals, 80)
	c.Assert(cfg.AlertWindow(), gc.Equals, "PT5M")
	c.Assert(cfg.StorageContainer(), gc.Equals, "media")
	c.Assert(cfg.BackupContainer(), gc.Equals, "backup")
}

func (s *configSuite) TestDerivedNames(c *gc.C) {
	cfg, err := config.New(minimalAttrs(nil))
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(cfg.ServerName(), gc.Equals, "recipes-db")
	c.Assert(cfg.EnvironmentName(), gc.Equals, "recipes-env")
	c.Assert(cfg.WorkspaceName(), gc.Equals, "recipes-logs")
	c.Assert(cfg.InsightsName(), gc.Equals, "recipes-insights")
	c.Assert(cfg.CPUAlertName(), gc.Equals, "recipes-cpu-alert")
	c.Assert(cfg.MemoryAlertName(), gc.Equals, "recipes-memory-alert")
	c.Assert(cfg.StorageAccount(), gc.Equals, "recipesmedia")
	c.Assert(cfg.BackupStorageAccount(), gc.Equals, "recipesbackup")
	c.Assert(cfg.DBName(), gc.Equals, "recipes")
}

func (s *configSuite) TestStorageAccountNameSqueezed(c *gc.C) {
	cfg, err := config.New(minimalAttrs(attrs{"name": "a-very-long-application"}))
	c.Assert(err, jc.ErrorIsNil)
	name := cfg.StorageAccount()
	c.Assert(len(name) <= 24, jc.IsTrue)
	c.Assert(name, gc.Matches, "[a-z0-9]+")
}

func (s *configSuite) TestMissingRequired(c *gc.C) {
	base := minimalAttrs(nil)
	for _, attr := range []string{"name", "subscription-id", "resource-group", "location", "image"} {
		broken := attrs{}
		for k, v := range base {
			if k != attr {
				broken[k] = v
			}
		}
		_, err := config.New(broken)
		c.Check(err, gc.NotNil, gc.Commentf("expected error for missing %q", attr))
	}
}

func (s *configSuite) TestInvalidValues(c *gc.C) {
	s.assertInvalid(c, attrs{"name": "Recipes"}, `deployment name "Recipes" not valid`)
	s.assertInvalid(c, attrs{"target-port": 0}, `target port 0 not valid`)
	s.assertInvalid(c, attrs{"target-port": 70000}, `target port 70000 not valid`)
	s.assertInvalid(c, attrs{"min-replicas": 3, "max-replicas": 1},
		`min-replicas 3 exceeds max-replicas 1`)
	s.assertInvalid(c, attrs{"cpu": "lots"}, `cpu value "lots" not valid`)
	s.assertInvalid(c, attrs{"memory": "512MB"}, `memory value "512MB" .* not valid`)
	s.assertInvalid(c, attrs{"storage-account": "Has-Caps"},
		`storage account name "Has-Caps" must be 3-24 lowercase letters and digits`)
	s.assertInvalid(c, attrs{"cpu-alert-percent": 0}, `cpu alert threshold 0% not valid`)
	s.assertInvalid(c, attrs{"memory-alert-percent": 250}, `memory alert threshold 250% not valid`)
	s.assertInvalid(c, attrs{"alert-severity": 9}, `alert severity 9 not valid`)
}

func (s *configSuite) TestNameRejectsUppercase(c *gc.C) {
	_, err := config.New(minimalAttrs(attrs{"name": "MyApp"}))
	c.Assert(err, gc.NotNil)
}

func (s *configSuite) TestPartialCredentials(c *gc.C) {
	s.assertInvalid(c, attrs{"tenant-id": "t"},
		`tenant-id, client-id and client-secret must be specified together`)
	cfg, err := config.New(minimalAttrs(attrs{
		"tenant-id":     "t",
		"client-id":     "c",
		"client-secret": "s",
	}))
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(cfg.TenantID(), gc.Equals, "t")
}

func (s *configSuite) TestImmutableAttributes(c *gc.C) {
	oldCfg, err := config.New(minimalAttrs(nil))
	c.Assert(err, jc.ErrorIsNil)

	newCfg, err := config.New(minimalAttrs(attrs{"location": "northeurope"}))
	c.Assert(err, jc.ErrorIsNil)
	err = config.Validate(newCfg, oldCfg)
	c.Assert(err, gc.ErrorMatches, `cannot change immutable "location" config \(westeurope -> northeurope\)`)

	newCfg, err = config.New(minimalAttrs(attrs{"image": "ghcr.io/example/recipes:1.6"}))
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(config.Validate(newCfg, oldCfg), jc.ErrorIsNil)
}

func (s *configSuite) TestReadFile(c *gc.C) {
	dir := c.MkDir()
	path := filepath.Join(dir, "azapp.yaml")
	content := `
name: recipes
subscription-id: 22222222-2222-2222-2222-222222222222
resource-group: recipes-rg
location: westeurope
image: ghcr.io/example/recipes:1.5
target-port: 8000
enable-signup: true
db-version: 15
`
	err := os.WriteFile(path, []byte(content), 0644)
	c.Assert(err, jc.ErrorIsNil)

	cfg, err := config.ReadFile(path)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(cfg.TargetPort(), gc.Equals, 8000)
	c.Assert(cfg.EnableSignup(), jc.IsTrue)
	c.Assert(cfg.DBVersion(), gc.Equals, "15")
}

func (s *configSuite) TestReadFileMissing(c *gc.C) {
	_, err := config.ReadFile(filepath.Join(c.MkDir(), "nope.yaml"))
	c.Assert(err, gc.ErrorMatches, "reading config file: .*")
}

func (s *configSuite) TestMemoryBytes(c *gc.C) {
	cfg, err := config.New(minimalAttrs(attrs{"memory": "2Gi"}))
	c.Assert(err, jc.ErrorIsNil)
	bytes, err := cfg.MemoryBytes()
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(bytes, gc.Equals, int64(2*1024*1024*1024))
}
