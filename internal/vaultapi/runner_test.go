package vaultapi_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/vaultfetch/internal/vaultapi"
	"github.com/systmms/vaultfetch/tests/fakes"
	"github.com/systmms/vaultfetch/tests/testutil"
)

type observed struct {
	step string
	err  error
}

func TestRunSuccess(t *testing.T) {
	t.Parallel()

	logger := testutil.NewTestLoggerWithDebug(t, true)
	var seen []observed
	runner := vaultapi.NewRunner(logger, func(step string, elapsed time.Duration, err error) {
		assert.GreaterOrEqual(t, elapsed, time.Duration(0))
		seen = append(seen, observed{step, err})
	})

	got, err := vaultapi.Run(runner, "Get Vault ID", func() (string, error) {
		return "v1", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "v1", got)

	assert.Equal(t, []observed{{"Get Vault ID", nil}}, seen)
	assert.Equal(t, []string{
		"[DEBUG] Starting request: Get Vault ID",
		"[DEBUG] Successfully completed request: Get Vault ID",
	}, logger.Lines())
}

func TestRunNilRunner(t *testing.T) {
	t.Parallel()

	got, err := vaultapi.Run(nil, "Authentication", func() (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, got)

	_, err = vaultapi.Run(nil, "Authentication", func() (int, error) {
		return 0, errors.New("boom")
	})
	require.Error(t, err)
	assert.Equal(t, "Authentication failed: boom (Status: none)", err.Error())
}

func TestRunPlainFailure(t *testing.T) {
	t.Parallel()

	logger := testutil.NewTestLoggerWithDebug(t, true)
	var seen []observed
	runner := vaultapi.NewRunner(logger, func(step string, _ time.Duration, err error) {
		seen = append(seen, observed{step, err})
	})

	cause := errors.New("connection refused")
	got, err := vaultapi.Run(runner, "Get Password", func() (string, error) {
		return "partial", cause
	})
	require.Error(t, err)
	assert.Empty(t, got, "a failed step returns the zero value")

	var stepErr *vaultapi.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "Get Password", stepErr.Description)
	assert.Equal(t, "connection refused", stepErr.Message)
	assert.Zero(t, stepErr.StatusCode)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Get Password failed: connection refused (Status: none)", err.Error())

	require.Len(t, seen, 1)
	assert.Equal(t, cause, seen[0].err)

	logger.AssertContains(t, "Full error object:")
	logger.AssertContains(t, `"message": "connection refused"`)
	logger.AssertNotContains(t, "Successfully completed request")
}

func TestRunServerFailure(t *testing.T) {
	t.Parallel()

	srv := fakes.NewFakeVaultServer()
	t.Cleanup(srv.Close)
	srv.Override(fakes.RouteVaults, http.StatusServiceUnavailable, `{"message":"maintenance window"}`)

	logger := testutil.NewTestLoggerWithDebug(t, true)
	client, err := vaultapi.NewClient(srv.URL)
	require.NoError(t, err)
	runner := vaultapi.NewRunner(logger, nil)

	_, err = vaultapi.Run(runner, "Get Vault ID", func() (string, error) {
		id, _, err := client.ResolveVault(context.Background(), "t1", "Prod")
		return id, err
	})
	require.Error(t, err)
	assert.Equal(t, "Get Vault ID failed: maintenance window (Status: 503)", err.Error())
	assert.Equal(t, 503, vaultapi.StatusOf(err))

	var lookupErr *vaultapi.LookupError
	require.ErrorAs(t, err, &lookupErr)

	output := logger.GetOutput()
	assert.Contains(t, output, `"status": 503`)
	assert.Contains(t, output, `"statusText": "Service Unavailable"`)
	assert.Contains(t, output, `"method": "GET"`)
	assert.Contains(t, output, srv.URL+"/api/v1/vault")
	assert.Contains(t, output, `"maintenance window"`)
}

func TestRunFailureWithoutServerMessage(t *testing.T) {
	t.Parallel()

	srv := fakes.NewFakeVaultServer()
	t.Cleanup(srv.Close)
	srv.Override(fakes.RouteLogin, http.StatusInternalServerError, `oops`)

	client, err := vaultapi.NewClient(srv.URL)
	require.NoError(t, err)

	_, err = vaultapi.Run(nil, "Authentication", func() (string, error) {
		return client.Authenticate(context.Background(), vaultapi.Credentials{AppKey: "k", AppSecret: "s"})
	})
	require.Error(t, err)
	assert.Equal(t, "Authentication failed: request failed with status code 500 (Status: 500)", err.Error())

	srv.Override(fakes.RouteVaults, http.StatusInternalServerError, ``)
	_, err = vaultapi.Run(nil, "Get Vault ID", func() (string, error) {
		id, _, err := client.ResolveVault(context.Background(), "t1", "Prod")
		return id, err
	})
	require.Error(t, err)
	assert.Equal(t, "Get Vault ID failed: request failed with status code 500 (Status: 500)", err.Error())
}

func TestRunTransportFailureUsesCause(t *testing.T) {
	t.Parallel()

	srv := fakes.NewFakeVaultServer()
	client, err := vaultapi.NewClient(srv.URL)
	require.NoError(t, err)
	srv.Close()

	_, err = vaultapi.Run(nil, "Authentication", func() (string, error) {
		return client.Authenticate(context.Background(), vaultapi.Credentials{AppKey: "k", AppSecret: "s"})
	})
	require.Error(t, err)

	var authErr *vaultapi.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	require.Error(t, authErr.Err)
	assert.Equal(t, "Authentication failed: "+authErr.Err.Error()+" (Status: none)", err.Error())
	assert.NotContains(t, err.Error(), "authentication:")
}

func TestRunKeepsTypedErrorText(t *testing.T) {
	t.Parallel()

	lookupErr := &vaultapi.LookupError{Op: "fetch entry", StatusCode: 502}
	assert.Equal(t, "fetch entry: request failed with status code 502", lookupErr.Error())

	_, err := vaultapi.Run(nil, "Get Password", func() (string, error) {
		return "", lookupErr
	})
	require.Error(t, err)
	assert.Equal(t, "Get Password failed: request failed with status code 502 (Status: 502)", err.Error())

	_, err = vaultapi.Run(nil, "Get Entry ID", func() (string, error) {
		return "", &vaultapi.EntryNotFoundError{Entry: "db"}
	})
	require.Error(t, err)
	assert.Equal(t, "Get Entry ID failed: Entry 'db' not found (Status: none)", err.Error())
}

func TestRunQuietWithoutDebug(t *testing.T) {
	t.Parallel()

	logger := testutil.NewTestLogger(t)
	runner := vaultapi.NewRunner(logger, nil)

	_, err := vaultapi.Run(runner, "Get Entry ID", func() (string, error) {
		return "", errors.New("boom")
	})
	require.Error(t, err)
	logger.AssertEmpty(t)
}
