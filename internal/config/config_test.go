package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/vaultfetch/internal/config"
	dserrors "github.com/systmms/vaultfetch/internal/errors"
)

func completeEnv() map[string]string {
	return map[string]string{
		"INPUT_SERVER_URL":      "https://vault.example.com",
		"INPUT_APP_KEY":         "k",
		"INPUT_APP_SECRET":      "s",
		"INPUT_VAULT_NAME":      "Prod",
		"INPUT_ENTRY_NAME":      "db",
		"INPUT_OUTPUT_VARIABLE": "DB_PASSWORD",
	}
}

func TestNewInputsDefaults(t *testing.T) {
	t.Parallel()

	in, err := config.NewInputs()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, in.Timeout)
	assert.False(t, in.SkipTLSVerify)
	assert.Empty(t, in.ServerURL)
}

func TestLoadEnvActionInputs(t *testing.T) {
	t.Parallel()

	environ := completeEnv()
	environ["INPUT_SKIP_TLS_VERIFY"] = "true"
	environ["INPUT_TIMEOUT"] = "5s"

	in, err := config.NewInputs()
	require.NoError(t, err)
	require.NoError(t, in.LoadEnv(config.ActionEnvPrefix, environ))

	assert.Equal(t, "https://vault.example.com", in.ServerURL)
	assert.Equal(t, "k", in.AppKey)
	assert.Equal(t, "s", in.AppSecret)
	assert.Equal(t, "Prod", in.VaultName)
	assert.Equal(t, "db", in.EntryName)
	assert.Equal(t, "DB_PASSWORD", in.OutputVariable)
	assert.True(t, in.SkipTLSVerify)
	assert.Equal(t, 5*time.Second, in.Timeout)
	assert.NoError(t, in.Validate())
}

func TestLoadEnvIgnoresOtherPrefix(t *testing.T) {
	t.Parallel()

	in, err := config.NewInputs()
	require.NoError(t, err)
	require.NoError(t, in.LoadEnv(config.CLIEnvPrefix, completeEnv()))

	assert.Empty(t, in.ServerURL)
}

func TestLoadEnvEmptyValueKeepsCurrent(t *testing.T) {
	t.Parallel()

	in, err := config.NewInputs()
	require.NoError(t, err)
	in.VaultName = "FromFile"

	require.NoError(t, in.LoadEnv(config.CLIEnvPrefix, map[string]string{
		"VAULTFETCH_VAULT_NAME": "",
		"VAULTFETCH_TIMEOUT":    "",
	}))

	assert.Equal(t, "FromFile", in.VaultName)
	assert.Equal(t, 30*time.Second, in.Timeout)
}

func TestLoadEnvInvalidValue(t *testing.T) {
	t.Parallel()

	in, err := config.NewInputs()
	require.NoError(t, err)

	err = in.LoadEnv(config.ActionEnvPrefix, map[string]string{"INPUT_TIMEOUT": "soon"})
	require.Error(t, err)

	var cfgErr dserrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "environment", cfgErr.Field)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "vaultfetch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server_url: https://vault.internal
vault_name: Prod
entry_name: db
output_variable: DB_PASSWORD
ca_file: /etc/ssl/vault-ca.pem
timeout: 10s
`), 0o600))

	in, err := config.NewInputs()
	require.NoError(t, err)
	require.NoError(t, in.LoadFile(path, true))

	assert.Equal(t, "https://vault.internal", in.ServerURL)
	assert.Equal(t, "/etc/ssl/vault-ca.pem", in.CAFile)
	assert.Equal(t, 10*time.Second, in.Timeout)

	// env overrides the file
	require.NoError(t, in.LoadEnv(config.CLIEnvPrefix, map[string]string{
		"VAULTFETCH_VAULT_NAME": "Staging",
	}))
	assert.Equal(t, "Staging", in.VaultName)
	assert.Equal(t, "db", in.EntryName)
}

func TestLoadFileMissing(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "absent.yaml")

	in, err := config.NewInputs()
	require.NoError(t, err)

	assert.NoError(t, in.LoadFile(path, false))

	err = in.LoadFile(path, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration file not found")
}

func TestLoadFileInvalidYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server_url: [unterminated\n"), 0o600))

	in, err := config.NewInputs()
	require.NoError(t, err)

	err = in.LoadFile(path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid YAML syntax")
}

func TestValidateListsMissingInputs(t *testing.T) {
	t.Parallel()

	in, err := config.NewInputs()
	require.NoError(t, err)
	in.ServerURL = "https://vault.example.com"
	in.AppKey = "k"
	in.EntryName = "db"

	err = in.Validate()
	require.Error(t, err)

	var cfgErr dserrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "app_secret, output_variable, vault_name", cfgErr.Value)
}

func TestLoadDotenv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("VAULTFETCH_ENTRY_NAME=from-dotenv\n"), 0o600))

	t.Setenv("VAULTFETCH_ENTRY_NAME", "")
	require.NoError(t, os.Unsetenv("VAULTFETCH_ENTRY_NAME"))

	require.NoError(t, config.LoadDotenv(path))
	assert.Equal(t, "from-dotenv", os.Getenv("VAULTFETCH_ENTRY_NAME"))

	err := config.LoadDotenv(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--env-file")
}
