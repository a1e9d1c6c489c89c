// Package ups provides integration with the UPS rating API.
package ups

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/tournevent/ratebridge/pkg/shipper"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const carrierName = "ups"

const ratePath = "/api/rating/v2403/Rate"

// transactionSrc identifies this integration on every carrier call.
const transactionSrc = "ratebridge"

// Config holds UPS configuration.
type Config struct {
	ClientID      string
	ClientSecret  string
	AccountNumber string
	BaseURL       string
	UseMock       bool // When true, uses mock collaborators.
}

// Client is the UPS shipper client. It implements the shipper.Shipper
// interface and orchestrates token acquisition, wire mapping and the
// transport call, classifying every failure on the way out.
type Client struct {
	config    Config
	transport Transport
	tokens    *TokenSource
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new UPS client.
// If cfg.UseMock is true, it uses mock collaborators for local development.
// Otherwise, it talks to the real carrier API.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var transport Transport
	var fetcher TokenFetcher

	if cfg.UseMock {
		transport = NewMockTransport()
		fetcher = NewMockTokenFetcher()
	} else {
		transport = NewHTTPTransport(cfg.BaseURL, requestTimeout)
		fetcher = NewOAuthFetcher(OAuthConfig{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			BaseURL:      cfg.BaseURL,
		})
	}

	return &Client{
		config:    cfg,
		transport: transport,
		tokens:    NewTokenSource(fetcher),
		logger:    logger,
		tracer:    tracer,
	}
}

// NewWithCollaborators creates a new UPS client with an injected transport
// and token fetcher. This is useful for injecting mocks in tests.
func NewWithCollaborators(cfg Config, transport Transport, fetcher TokenFetcher, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	return &Client{
		config:    cfg,
		transport: transport,
		tokens:    NewTokenSource(fetcher),
		logger:    logger,
		tracer:    tracer,
	}
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return carrierName
}

// OnTokenRefresh registers fn to observe every token fetch attempt, for
// instance to record refresh metrics. Call it before the client serves
// requests.
func (c *Client) OnTokenRefresh(fn func(err error)) {
	c.tokens.OnRefresh = fn
}

// GetRates returns shipping rate quotes from UPS.
func (c *Client) GetRates(ctx context.Context, req *shipper.RateRequest) ([]shipper.RateQuote, error) {
	if c.tracer != nil {
		var span trace.Span
		ctx, span = c.tracer.Start(ctx, "ups.GetRates")
		defer span.End()
	}

	c.logger.Info("Getting UPS rates",
		zap.String("origin_city", req.ShipFrom.City),
		zap.String("destination_city", req.ShipTo.City),
		zap.Int("package_count", len(req.Packages)),
	)

	// Token fetch failures propagate unclassified: provisioning
	// credentials is the caller's responsibility, not the carrier's.
	token, err := c.tokens.Token(ctx)
	if err != nil {
		c.logger.Error("UPS token fetch failed", zap.Error(err))
		return nil, err
	}

	wireReq := toWire(req, c.config.AccountNumber)

	headers := map[string]string{
		"Authorization":  "Bearer " + token,
		"transId":        uuid.New().String(),
		"transactionSrc": transactionSrc,
	}

	resp, err := c.transport.Post(ctx, ratePath, wireReq, headers)
	if err != nil {
		classified := classify(err)
		c.logger.Error("UPS rate call failed", zap.Error(classified))
		return nil, classified
	}

	var wireResp rateResponse
	if err := json.Unmarshal(resp.Body, &wireResp); err != nil {
		classified := classifyWithBody(err, resp.Body)
		c.logger.Error("UPS response unparseable", zap.Error(classified))
		return nil, classified
	}

	quotes, err := fromWire(&wireResp)
	if err != nil {
		classified := classifyWithBody(err, resp.Body)
		c.logger.Error("UPS response malformed", zap.Error(classified))
		return nil, classified
	}

	return quotes, nil
}

var _ shipper.Shipper = (*Client)(nil)
