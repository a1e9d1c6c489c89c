package main

import (
	"context"

	"github.com/tournevent/ratebridge/internal/config"
	"github.com/tournevent/ratebridge/internal/telemetry"
	"github.com/tournevent/ratebridge/pkg/shipper"
	"github.com/tournevent/ratebridge/pkg/shipper/ups"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(level string) (*otelzap.Logger, error) {
	return telemetry.NewLogger(level)
}

func initTracer(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return func(context.Context) error { return nil }, nil
	}

	_, shutdown, err := telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version)
	return shutdown, err
}

func initShipperRegistry(cfg *config.Config, logger *otelzap.Logger) *shipper.Registry {
	registry := shipper.NewRegistry()

	var tracer trace.Tracer
	if cfg.OTELEnabled {
		tracer = otel.GetTracerProvider().Tracer(cfg.ServiceName)
	}

	if cfg.UPSEnabled {
		client := ups.New(ups.Config{
			ClientID:      cfg.UPSClientID,
			ClientSecret:  cfg.UPSClientSecret,
			AccountNumber: cfg.UPSAccountNumber,
			BaseURL:       cfg.UPSBaseURL,
			UseMock:       cfg.UPSUseMock,
		}, logger, tracer)

		metrics := telemetry.NewMetrics()
		client.OnTokenRefresh(func(err error) {
			outcome := "success"
			if err != nil {
				outcome = "failure"
			}
			metrics.RecordTokenRefresh(client.Name(), outcome)
		})

		registry.Register(client)
	}

	return registry
}
