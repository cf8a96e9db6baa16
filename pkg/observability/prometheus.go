package observability

import (
	"fmt"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// PrometheusExporter exposes the meter provider's instruments from a private
// registry, so several providers can coexist in one process.
type PrometheusExporter struct {
	registry *prometheus.Registry
}

// newPrometheusExporter returns the exporter and the reader to attach to the
// meter provider it should serve.
func newPrometheusExporter() (*PrometheusExporter, sdkmetric.Reader, error) {
	registry := prometheus.NewRegistry()

	reader, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	return &PrometheusExporter{registry: registry}, reader, nil
}

// Handler serves the registry for /metrics scrapes.
func (pe *PrometheusExporter) Handler() http.Handler {
	return promhttp.HandlerFor(pe.registry, promhttp.HandlerOpts{})
}

// WriteText gathers the registry and writes it in the Prometheus text format.
func (pe *PrometheusExporter) WriteText(w io.Writer) error {
	families, err := pe.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	encoder := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))

	for _, family := range families {
		encodeErr := encoder.Encode(family)
		if encodeErr != nil {
			return fmt.Errorf("encode %s: %w", family.GetName(), encodeErr)
		}
	}

	return nil
}
