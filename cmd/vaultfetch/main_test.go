package main

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/vaultfetch/cmd/vaultfetch/commands"
	"github.com/systmms/vaultfetch/internal/config"
)

func TestReportError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want []string
	}{
		{
			name: "plain",
			err:  fmt.Errorf("Get Password failed: boom (Status: 500)"),
			want: []string{"Error: Get Password failed: boom (Status: 500)\n"},
		},
		{
			name: "missing_file",
			err:  fmt.Errorf("unable to load specified CA cert /etc/ca.pem: open /etc/ca.pem: no such file or directory"),
			want: []string{"Error: File or directory not found", "Details: unable to load specified CA cert /etc/ca.pem", "Verify the path exists"},
		},
		{
			name: "permission",
			err:  fmt.Errorf("open vaultfetch.yaml: permission denied"),
			want: []string{"Error: Permission denied", "Details: open vaultfetch.yaml: permission denied"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer
			reportError(&out, tt.err)
			for _, want := range tt.want {
				assert.Contains(t, out.String(), want)
			}
		})
	}
}

func TestReportErrorSkipsActionFailures(t *testing.T) {
	t.Setenv("INPUT_SERVER_URL", "")
	t.Setenv("INPUT_APP_SECRET", "")

	var stdout bytes.Buffer
	cmd := commands.NewActionCommand(&config.Config{})
	cmd.SetOut(&stdout)
	cmd.SetErr(&stdout)
	cmd.SetArgs([]string{})
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, stdout.String(), "::error::")

	var stderr bytes.Buffer
	reportError(&stderr, err)
	assert.Empty(t, stderr.String())
}
