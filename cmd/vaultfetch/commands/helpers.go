package commands

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/systmms/vaultfetch/internal/config"
	"github.com/systmms/vaultfetch/internal/metrics"
	"github.com/systmms/vaultfetch/internal/pipeline"
	"github.com/systmms/vaultfetch/internal/sink"
	"github.com/systmms/vaultfetch/internal/vaultapi"
)

// inputFlags holds the command-line overrides for config.Inputs
type inputFlags struct {
	serverURL      string
	appKey         string
	appSecret      string
	vaultName      string
	entryName      string
	outputVariable string
	caFile         string
	skipTLSVerify  bool
	timeout        time.Duration
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.serverURL, "server-url", "", "Vault server base URL")
	cmd.Flags().StringVar(&f.appKey, "app-key", "", "Application key")
	cmd.Flags().StringVar(&f.appSecret, "app-secret", "", "Application secret (prefer VAULTFETCH_APP_SECRET)")
	cmd.Flags().StringVar(&f.vaultName, "vault", "", "Vault name (exact, case-sensitive)")
	cmd.Flags().StringVar(&f.entryName, "entry", "", "Entry name")
	cmd.Flags().StringVar(&f.outputVariable, "output-variable", "", "Variable name used by the dotenv and json formats")
	cmd.Flags().StringVar(&f.caFile, "ca-file", "", "PEM file with the CA that signed the server certificate")
	cmd.Flags().BoolVar(&f.skipTLSVerify, "skip-tls-verify", false, "Do not verify the server certificate")
	cmd.Flags().DurationVar(&f.timeout, "timeout", vaultapi.DefaultTimeout, "Per-request timeout")
}

// apply copies every flag the user actually set onto in
func (f *inputFlags) apply(cmd *cobra.Command, in *config.Inputs) {
	flags := cmd.Flags()
	set := func(name string, fn func()) {
		if flags.Changed(name) {
			fn()
		}
	}

	set("server-url", func() { in.ServerURL = f.serverURL })
	set("app-key", func() { in.AppKey = f.appKey })
	set("app-secret", func() { in.AppSecret = f.appSecret })
	set("vault", func() { in.VaultName = f.vaultName })
	set("entry", func() { in.EntryName = f.entryName })
	set("output-variable", func() { in.OutputVariable = f.outputVariable })
	set("ca-file", func() { in.CAFile = f.caFile })
	set("skip-tls-verify", func() { in.SkipTLSVerify = f.skipTLSVerify })
	set("timeout", func() { in.Timeout = f.timeout })
}

// retrieval is one run of the pipeline with everything it needs resolved
type retrieval struct {
	cfg    *config.Config
	inputs *config.Inputs
	diag   vaultapi.Diagnostics
	sink   sink.SecretSink
}

func (r retrieval) run(ctx context.Context) error {
	in := r.inputs

	hc, err := vaultapi.NewHTTPClient(ctx, vaultapi.TransportConfig{
		InsecureSkipVerify: in.SkipTLSVerify,
		CAFile:             in.CAFile,
		Timeout:            in.Timeout,
		UserAgent:          r.cfg.UserAgent(),
	})
	if err != nil {
		return err
	}

	requestID := uuid.NewString()
	r.diag.Debug("Server URL: %s", in.ServerURL)
	r.diag.Debug("Request ID: %s", requestID)

	client, err := vaultapi.NewClient(in.ServerURL,
		vaultapi.WithHTTPClient(hc),
		vaultapi.WithDiagnostics(r.diag),
		vaultapi.WithRequestID(requestID),
	)
	if err != nil {
		return err
	}

	var (
		stepMetrics *metrics.StepMetrics
		observe     vaultapi.Observer
	)
	if r.cfg.MetricsFile != "" {
		stepMetrics = metrics.NewStepMetrics()
		observe = stepMetrics.RecordStep
	}

	p := pipeline.New(client, vaultapi.NewRunner(r.diag, observe), r.sink, pipeline.WithDiagnostics(r.diag))
	runErr := p.Run(ctx, pipeline.Request{
		Credentials: vaultapi.Credentials{
			AppKey:    in.AppKey,
			AppSecret: in.AppSecret,
		},
		VaultName:      in.VaultName,
		EntryName:      in.EntryName,
		OutputVariable: in.OutputVariable,
	})

	if stepMetrics != nil {
		stepMetrics.MarkFinished(time.Now())
		if err := stepMetrics.WriteTextfile(r.cfg.MetricsFile); err != nil {
			if runErr == nil {
				return err
			}
			r.diag.Debug("%v", err)
		}
	}

	return runErr
}
