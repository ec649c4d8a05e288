package pipeline

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/studiowebux/proxyview/internal/config"
)

// Response is what the pipeline needs from an HTTP exchange. Body is left
// unread so text-mode rendering can decide whether to consume it.
type Response struct {
	StatusCode  int
	Status      string
	ContentType string
	Body        io.ReadCloser
}

// Doer sends a descriptor. Any HTTP status is a successful exchange; only
// transport failures are errors.
type Doer interface {
	Do(ctx context.Context, d Descriptor) (*Response, error)
}

// ClientOptions configures the outgoing HTTP client
type ClientOptions struct {
	Timeout            time.Duration
	InsecureSkipVerify bool
	CAFile             string
	UserAgent          string
}

// OptionsFromSettings maps user settings to client options
func OptionsFromSettings(s config.Settings) ClientOptions {
	return ClientOptions{
		Timeout:            s.Timeout(),
		InsecureSkipVerify: s.InsecureSkipVerify,
		CAFile:             s.CAFile,
	}
}

// Client is the resty-backed Doer
type Client struct {
	resty *resty.Client
}

// NewClient builds a client with retries disabled and optional TLS settings
func NewClient(opts ClientOptions) (*Client, error) {
	r, err := NewRestyClient(opts)
	if err != nil {
		return nil, err
	}
	return &Client{resty: r}, nil
}

// NewRestyClient returns the configured resty client shared by the pipeline
// and the self-hosted proxy. Redirects are followed with resty's defaults.
func NewRestyClient(opts ClientOptions) (*resty.Client, error) {
	r := resty.New().
		SetRetryCount(0).
		SetTimeout(opts.Timeout)

	if opts.UserAgent != "" {
		r.SetHeader("User-Agent", opts.UserAgent)
	}

	tlsCfg, err := buildTLSConfig(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to configure HTTP client: %w", err)
	}
	if tlsCfg != nil {
		r.SetTLSClientConfig(tlsCfg)
	}

	return r, nil
}

// Do sends d to its proxied URL
func (c *Client) Do(ctx context.Context, d Descriptor) (*Response, error) {
	req := c.resty.R().
		SetContext(ctx).
		SetDoNotParseResponse(true)

	// Header names go out exactly as typed
	d.Headers.Each(func(name, value string) {
		req.SetHeaderVerbatim(name, value)
	})

	if d.HasBody {
		req.SetBody(d.Body)
	}

	resp, err := req.Execute(d.Method, d.ProxiedURL)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode:  resp.StatusCode(),
		Status:      resp.Status(),
		ContentType: resp.Header().Get("Content-Type"),
		Body:        resp.RawBody(),
	}, nil
}

// buildTLSConfig returns nil when no TLS option is set
func buildTLSConfig(opts ClientOptions) (*tls.Config, error) {
	if !opts.InsecureSkipVerify && opts.CAFile == "" {
		return nil, nil
	}

	tlsCfg := &tls.Config{
		InsecureSkipVerify: opts.InsecureSkipVerify,
	}

	if opts.CAFile != "" {
		caCert, err := os.ReadFile(opts.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate: %w", err)
		}
		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA certificate")
		}
		tlsCfg.RootCAs = caCertPool
	}

	return tlsCfg, nil
}
