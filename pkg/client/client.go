// Package client клиент integration-svc поверх connect с повторами
package client

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/sethvargo/go-retry"
	"golang.org/x/net/http2"

	"montecarlo/pkg/api"
	"montecarlo/pkg/apperror"
	"montecarlo/pkg/config"
)

// Протоколы транспорта
const (
	ProtocolConnect = "connect"
	ProtocolGRPC    = "grpc"
	ProtocolGRPCWeb = "grpcweb"
)

// Config конфигурация клиента
type Config struct {
	Address      string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	Protocol     string
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		Address:      "http://localhost:8080",
		Timeout:      30 * time.Second,
		MaxRetries:   3,
		RetryBackoff: 100 * time.Millisecond,
		Protocol:     ProtocolConnect,
	}
}

// FromConfig конфигурация из секции client
func FromConfig(cfg config.ClientConfig) *Config {
	c := DefaultConfig()
	if cfg.Address != "" {
		c.Address = cfg.Address
	}
	if cfg.Timeout > 0 {
		c.Timeout = cfg.Timeout
	}
	if cfg.MaxRetries > 0 {
		c.MaxRetries = cfg.MaxRetries
	}
	if cfg.Protocol != "" {
		c.Protocol = cfg.Protocol
	}
	return c
}

// Option настройка клиента
type Option func(*options)

type options struct {
	httpClient connect.HTTPClient
}

// WithHTTPClient подменяет HTTP клиент (тесты, TLS)
func WithHTTPClient(c connect.HTTPClient) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// Client клиент IntegrationService
type Client struct {
	cfg *Config

	integrate      *connect.Client[api.IntegrateRequest, api.IntegrateResponse]
	compare        *connect.Client[api.CompareRequest, api.CompareResponse]
	getRun         *connect.Client[api.GetRunRequest, api.Run]
	listRuns       *connect.Client[api.ListRunsRequest, api.ListRunsResponse]
	deleteRun      *connect.Client[api.DeleteRunRequest, api.DeleteRunResponse]
	report         *connect.Client[api.ReportRequest, api.ReportResponse]
	listIntegrands *connect.Client[api.ListIntegrandsRequest, api.ListIntegrandsResponse]
}

// New создаёт клиента; соединения открываются лениво
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	base := strings.TrimRight(cfg.Address, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	clientOpts := []connect.ClientOption{api.WithJSON()}
	switch cfg.Protocol {
	case "", ProtocolConnect:
	case ProtocolGRPC:
		clientOpts = append(clientOpts, connect.WithGRPC())
	case ProtocolGRPCWeb:
		clientOpts = append(clientOpts, connect.WithGRPCWeb())
	default:
		return nil, apperror.Newf(apperror.CodeInvalidArgument, "unknown protocol %q", cfg.Protocol).WithField("protocol")
	}

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = newHTTPClient(cfg.Protocol)
	}

	return &Client{
		cfg:            cfg,
		integrate:      connect.NewClient[api.IntegrateRequest, api.IntegrateResponse](httpClient, base+api.IntegrateProcedure, clientOpts...),
		compare:        connect.NewClient[api.CompareRequest, api.CompareResponse](httpClient, base+api.CompareProcedure, clientOpts...),
		getRun:         connect.NewClient[api.GetRunRequest, api.Run](httpClient, base+api.GetRunProcedure, clientOpts...),
		listRuns:       connect.NewClient[api.ListRunsRequest, api.ListRunsResponse](httpClient, base+api.ListRunsProcedure, clientOpts...),
		deleteRun:      connect.NewClient[api.DeleteRunRequest, api.DeleteRunResponse](httpClient, base+api.DeleteRunProcedure, clientOpts...),
		report:         connect.NewClient[api.ReportRequest, api.ReportResponse](httpClient, base+api.ReportProcedure, clientOpts...),
		listIntegrands: connect.NewClient[api.ListIntegrandsRequest, api.ListIntegrandsResponse](httpClient, base+api.ListIntegrandsProcedure, clientOpts...),
	}, nil
}

// newHTTPClient gRPC требует HTTP/2; без TLS это h2c
func newHTTPClient(protocol string) *http.Client {
	if protocol != ProtocolGRPC {
		return &http.Client{}
	}
	return &http.Client{
		Transport: &http2.Transport{
			AllowHTTP: true,
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, network, addr)
			},
		},
	}
}

func (c *Client) Integrate(ctx context.Context, req *api.IntegrateRequest) (*api.IntegrateResponse, error) {
	return call(ctx, c.cfg, c.integrate, req)
}

func (c *Client) Compare(ctx context.Context, req *api.CompareRequest) (*api.CompareResponse, error) {
	return call(ctx, c.cfg, c.compare, req)
}

func (c *Client) GetRun(ctx context.Context, id string) (*api.Run, error) {
	return call(ctx, c.cfg, c.getRun, &api.GetRunRequest{ID: id})
}

func (c *Client) ListRuns(ctx context.Context, req *api.ListRunsRequest) (*api.ListRunsResponse, error) {
	return call(ctx, c.cfg, c.listRuns, req)
}

func (c *Client) DeleteRun(ctx context.Context, id string) (*api.DeleteRunResponse, error) {
	return call(ctx, c.cfg, c.deleteRun, &api.DeleteRunRequest{ID: id})
}

func (c *Client) Report(ctx context.Context, req *api.ReportRequest) (*api.ReportResponse, error) {
	return call(ctx, c.cfg, c.report, req)
}

func (c *Client) ListIntegrands(ctx context.Context) (*api.ListIntegrandsResponse, error) {
	return call(ctx, c.cfg, c.listIntegrands, &api.ListIntegrandsRequest{})
}

// call выполняет унарный вызов; сетевые сбои и перегрузка повторяются с экспоненциальной паузой
func call[Req, Res any](ctx context.Context, cfg *Config, cl *connect.Client[Req, Res], req *Req) (*Res, error) {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	backoff := retry.NewExponential(cfg.RetryBackoff)
	backoff = retry.WithMaxRetries(uint64(max(cfg.MaxRetries, 0)), backoff)

	resp, err := retry.DoValue(ctx, backoff, func(ctx context.Context) (*connect.Response[Res], error) {
		resp, err := cl.CallUnary(ctx, connect.NewRequest(req))
		if err != nil && retryable(err) {
			return nil, retry.RetryableError(err)
		}
		return resp, err
	})
	if err != nil {
		return nil, convertError(err)
	}
	return resp.Msg, nil
}

func retryable(err error) bool {
	switch connect.CodeOf(err) {
	case connect.CodeUnavailable, connect.CodeAborted, connect.CodeResourceExhausted:
		return true
	default:
		return false
	}
}

func convertError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperror.Wrap(err, apperror.CodeDeadlineExceeded, "request deadline exceeded")
	case errors.Is(err, context.Canceled):
		return apperror.Wrap(err, apperror.CodeCancelled, "request cancelled")
	}
	return apperror.FromConnect(err)
}
