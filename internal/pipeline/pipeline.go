// Package pipeline runs one password retrieval from login to publication.
//
// The steps are strictly sequential. Each one goes through vaultapi.Run, so
// a failure is reported once, in the same shape, and stops the run before
// anything reaches the sink.
package pipeline

import (
	"context"
	"fmt"

	"github.com/systmms/vaultfetch/internal/secure"
	"github.com/systmms/vaultfetch/internal/sink"
	"github.com/systmms/vaultfetch/internal/vaultapi"
)

// Step descriptions as they appear in failure messages
const (
	StepAuthenticate = "Authentication"
	StepVault        = "Get Vault ID"
	StepEntry        = "Get Entry ID"
	StepPassword     = "Get Password"
)

// VaultClient is the read path the pipeline drives. *vaultapi.Client
// implements it.
type VaultClient interface {
	Authenticate(ctx context.Context, creds vaultapi.Credentials) (string, error)
	ResolveVault(ctx context.Context, token, vaultName string) (string, bool, error)
	ResolveEntry(ctx context.Context, token, vaultID, entryName string) (string, error)
	FetchPassword(ctx context.Context, token, vaultID, entryID string) (string, error)
}

// Request names the secret to retrieve and where it goes
type Request struct {
	Credentials    vaultapi.Credentials
	VaultName      string
	EntryName      string
	OutputVariable string
}

// Validate checks that every field the steps depend on is set
func (r Request) Validate() error {
	switch {
	case r.Credentials.AppKey == "":
		return fmt.Errorf("app key is required")
	case r.Credentials.AppSecret == "":
		return fmt.Errorf("app secret is required")
	case r.VaultName == "":
		return fmt.Errorf("vault name is required")
	case r.EntryName == "":
		return fmt.Errorf("entry name is required")
	case r.OutputVariable == "":
		return fmt.Errorf("output variable is required")
	}
	return nil
}

// Pipeline wires a client, a runner and a sink together
type Pipeline struct {
	client VaultClient
	runner *vaultapi.Runner
	sink   sink.SecretSink
	diag   vaultapi.Diagnostics
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithDiagnostics sets where the run's debug trace goes
func WithDiagnostics(d vaultapi.Diagnostics) Option {
	return func(p *Pipeline) {
		if d != nil {
			p.diag = d
		}
	}
}

// New creates a Pipeline. runner may be nil.
func New(client VaultClient, runner *vaultapi.Runner, s sink.SecretSink, opts ...Option) *Pipeline {
	p := &Pipeline{
		client: client,
		runner: runner,
		sink:   s,
		diag:   noDebug{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Fetch runs the four lookup steps and returns the password sealed in a
// secure.Secret. The caller owns the Secret and should Destroy it.
func (p *Pipeline) Fetch(ctx context.Context, req Request) (*secure.Secret, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p.diag.Debug("Vault name: %s", req.VaultName)
	p.diag.Debug("Entry name: %s", req.EntryName)

	token, err := vaultapi.Run(p.runner, StepAuthenticate, func() (string, error) {
		return p.client.Authenticate(ctx, req.Credentials)
	})
	if err != nil {
		return nil, err
	}

	type vaultResult struct {
		id    string
		found bool
	}
	vault, err := vaultapi.Run(p.runner, StepVault, func() (vaultResult, error) {
		id, found, err := p.client.ResolveVault(ctx, token, req.VaultName)
		return vaultResult{id: id, found: found}, err
	})
	if err != nil {
		return nil, err
	}
	if !vault.found || vault.id == "" {
		return nil, &vaultapi.VaultNotFoundError{Vault: req.VaultName}
	}

	entryID, err := vaultapi.Run(p.runner, StepEntry, func() (string, error) {
		return p.client.ResolveEntry(ctx, token, vault.id, req.EntryName)
	})
	if err != nil {
		return nil, err
	}

	password, err := vaultapi.Run(p.runner, StepPassword, func() (*secure.Secret, error) {
		value, err := p.client.FetchPassword(ctx, token, vault.id, entryID)
		if err != nil {
			return nil, err
		}
		return secure.NewSecret(value), nil
	})
	if err != nil {
		return nil, err
	}

	return password, nil
}

// Run fetches the password, masks it and publishes it to the env channel
// under req.OutputVariable and to the output channel under "password".
// Nothing is masked or published when any step fails.
func (p *Pipeline) Run(ctx context.Context, req Request) error {
	secret, err := p.Fetch(ctx, req)
	if err != nil {
		return err
	}
	defer secret.Destroy()

	return secret.Use(func(value string) error {
		if err := p.sink.Mask(value); err != nil {
			return fmt.Errorf("failed to mask secret: %w", err)
		}
		if err := p.sink.Publish(sink.ChannelEnv, req.OutputVariable, value); err != nil {
			return fmt.Errorf("failed to export %s: %w", req.OutputVariable, err)
		}
		if err := p.sink.Publish(sink.ChannelOutput, sink.PasswordOutput, value); err != nil {
			return fmt.Errorf("failed to set output %s: %w", sink.PasswordOutput, err)
		}
		p.diag.Debug("Password exported as %s and output %s", req.OutputVariable, sink.PasswordOutput)
		return nil
	})
}

type noDebug struct{}

func (noDebug) Debug(string, ...interface{}) {}
