package tally

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/retailops/ledgersync/internal/domain/ledger"
)

// maxResponseSize caps response bodies read from the ledger system (4MB)
const maxResponseSize = 4 * 1024 * 1024

// ErrEndpointNotConfigured indicates the client has no endpoint to talk to
var ErrEndpointNotConfigured = errors.New("tally: endpoint not configured")

// Config holds ledger-system connection settings
type Config struct {
	// Endpoint is the ledger system's local HTTP endpoint
	Endpoint string
	// ProbeTimeout bounds the health probe request
	ProbeTimeout time.Duration
	// SendTimeout bounds payload delivery; the send path tolerates roughly
	// double the probe budget
	SendTimeout time.Duration
}

// Validate validates the configuration, applying timeout defaults
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return ErrEndpointNotConfigured
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = 3 * time.Second
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = 2 * c.ProbeTimeout
	}
	return nil
}

// Client talks to the ledger system over its narrow HTTP/XML interface.
// It carries two HTTP clients because probes and sends have distinct
// timeout budgets.
type Client struct {
	config     Config
	probeHTTP  *http.Client
	sendHTTP   *http.Client
	classifier ledger.ResponseClassifier
	logger     *zap.Logger
}

// NewClient creates a ledger-system client
func NewClient(config Config, classifier ledger.ResponseClassifier, logger *zap.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		config:     config,
		probeHTTP:  &http.Client{Timeout: config.ProbeTimeout},
		sendHTTP:   &http.Client{Timeout: config.SendTimeout},
		classifier: classifier,
		logger:     logger,
	}, nil
}

// Probe issues a minimal side-effect-free request and reports reachability.
// Transport failures resolve to offline; Probe never returns an error.
func (c *Client) Probe(ctx context.Context) ledger.HealthStatus {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.Endpoint, nil)
	if err != nil {
		return ledger.HealthStatus{Online: false, Err: err.Error()}
	}

	resp, err := c.probeHTTP.Do(req)
	latency := time.Since(start)
	if err != nil {
		c.logger.Debug("ledger system unreachable",
			zap.String("endpoint", c.config.Endpoint),
			zap.Error(err),
		)
		return ledger.HealthStatus{Online: false, Latency: latency, Err: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))

	// The ledger system answers any method on its endpoint while alive;
	// the status code is irrelevant for liveness.
	return ledger.HealthStatus{Online: true, Latency: latency}
}

// Ensure Client satisfies the domain transport ports
var (
	_ ledger.HealthProber       = (*Client)(nil)
	_ ledger.PayloadSender      = (*Client)(nil)
	_ ledger.StockReportFetcher = (*Client)(nil)
)

// Send posts a payload and classifies the response. A transport-level failure
// yields an OutcomeTransportError response together with the error; remote
// rejections are expressed purely through the classified response.
func (c *Client) Send(ctx context.Context, payload string) (*ledger.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, strings.NewReader(payload))
	if err != nil {
		return &ledger.Response{Outcome: ledger.OutcomeTransportError, Message: err.Error()}, err
	}
	req.Header.Set("Content-Type", "text/xml;charset=utf-8")

	resp, err := c.sendHTTP.Do(req)
	if err != nil {
		return &ledger.Response{Outcome: ledger.OutcomeTransportError, Message: err.Error()}, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return &ledger.Response{Outcome: ledger.OutcomeTransportError, Message: err.Error()}, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := fmt.Sprintf("ledger system returned HTTP %d", resp.StatusCode)
		return &ledger.Response{Outcome: ledger.OutcomeTransportError, Message: msg, Raw: string(body)},
			errors.New(msg)
	}

	classified := c.classifier.Classify(string(body))
	return &classified, nil
}
