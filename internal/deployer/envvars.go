// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package deployer

import (
	"github.com/canonical/azapp/internal/config"
	"github.com/canonical/azapp/internal/provider/azure"
)

// ContractEnvVars are the environment variable names the application
// image expects. The deployed app must carry exactly this set.
var ContractEnvVars = []string{
	"SECRET_KEY",
	"DB_ENGINE",
	"POSTGRES_HOST",
	"POSTGRES_PORT",
	"POSTGRES_USER",
	"POSTGRES_PASSWORD",
	"POSTGRES_DB",
	"DEBUG",
	"ALLOWED_HOSTS",
	"TIMEZONE",
	"ENABLE_SIGNUP",
	"AZURE_ACCOUNT_NAME",
	"AZURE_ACCOUNT_KEY",
	"AZURE_CONTAINER",
	"APPINSIGHTS_INSTRUMENTATIONKEY",
}

// dbEngine is the database backend the application is configured with.
const dbEngine = "django.db.backends.postgresql"

// Container app secret names. Secret values are stored in the app's
// secret store and referenced by name from the environment, so they
// never appear in the app model in plain text.
const (
	secretKeyName  = "secret-key"
	dbPasswordName = "db-password"
	storageKeyName = "storage-key"
)

// appSecrets carries the sensitive values wired into the environment.
type appSecrets struct {
	SecretKey          string
	ServerFQDN         string
	DBPassword         string
	StorageKey         string
	InstrumentationKey string
}

// appEnvironment builds the full environment variable set and the
// backing secrets for the application container.
func appEnvironment(cfg *config.Config, s appSecrets) ([]azure.EnvVar, map[string]string) {
	env := []azure.EnvVar{
		{Name: "SECRET_KEY", SecretRef: secretKeyName},
		{Name: "DB_ENGINE", Value: dbEngine},
		{Name: "POSTGRES_HOST", Value: s.ServerFQDN},
		{Name: "POSTGRES_PORT", Value: "5432"},
		{Name: "POSTGRES_USER", Value: cfg.DBAdminUser()},
		{Name: "POSTGRES_PASSWORD", SecretRef: dbPasswordName},
		{Name: "POSTGRES_DB", Value: cfg.DBName()},
		{Name: "DEBUG", Value: boolFlag(cfg.Debug())},
		{Name: "ALLOWED_HOSTS", Value: cfg.AllowedHosts()},
		{Name: "TIMEZONE", Value: cfg.Timezone()},
		{Name: "ENABLE_SIGNUP", Value: boolFlag(cfg.EnableSignup())},
		{Name: "AZURE_ACCOUNT_NAME", Value: cfg.StorageAccount()},
		{Name: "AZURE_ACCOUNT_KEY", SecretRef: storageKeyName},
		{Name: "AZURE_CONTAINER", Value: cfg.StorageContainer()},
		{Name: "APPINSIGHTS_INSTRUMENTATIONKEY", Value: s.InstrumentationKey},
	}
	secrets := map[string]string{
		secretKeyName:  s.SecretKey,
		dbPasswordName: s.DBPassword,
		storageKeyName: s.StorageKey,
	}
	return env, secrets
}

// boolFlag renders a boolean the way the application parses it.
func boolFlag(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
