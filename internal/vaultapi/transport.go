package vaultapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	prococo "github.com/prometheus/common/config"
)

// DefaultTimeout bounds a single request when the caller sets none
const DefaultTimeout = 30 * time.Second

// TransportConfig holds the connection settings for the vault server
type TransportConfig struct {
	InsecureSkipVerify bool
	CAFile             string
	Timeout            time.Duration
	UserAgent          string
}

// NewHTTPClient builds the HTTP client used for every call of a run.
func NewHTTPClient(ctx context.Context, cfg TransportConfig) (*http.Client, error) {
	httpcfg := prococo.HTTPClientConfig{
		TLSConfig: prococo.TLSConfig{
			CAFile:             cfg.CAFile,
			InsecureSkipVerify: cfg.InsecureSkipVerify,
		},
		FollowRedirects: true,
		EnableHTTP2:     true,
	}
	if err := httpcfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid transport configuration: %w", err)
	}

	var opts []prococo.HTTPClientOption
	if cfg.UserAgent != "" {
		opts = append(opts, prococo.WithUserAgent(cfg.UserAgent))
	}

	rt, err := prococo.NewRoundTripperFromConfigWithContext(ctx, httpcfg, "vaultfetch", opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &http.Client{
		Transport: rt,
		Timeout:   timeout,
	}, nil
}
