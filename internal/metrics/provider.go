// Package metrics exposes OpenTelemetry instruments through a Prometheus registry.
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Provider owns the meter provider and the registry served on /metrics.
type Provider struct {
	meterProvider *sdkmetric.MeterProvider
	registry      *prometheus.Registry
	namespace     string
}

// NewProvider creates a meter provider backed by a dedicated Prometheus registry
func NewProvider(namespace string) (*Provider, error) {
	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	return &Provider{
		meterProvider: sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter)),
		registry:      registry,
		namespace:     namespace,
	}, nil
}

// Handler serves the registry in Prometheus exposition format
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// MeterProvider returns the provider for creating meters
func (p *Provider) MeterProvider() *sdkmetric.MeterProvider {
	return p.meterProvider
}

// Namespace returns the metric name prefix
func (p *Provider) Namespace() string {
	return p.namespace
}

// Shutdown flushes and stops the meter provider
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.meterProvider == nil {
		return nil
	}
	return p.meterProvider.Shutdown(ctx)
}
