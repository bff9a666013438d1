package telemetry

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// Exporter is an in-process meter provider whose data is pulled on demand,
// for /metrics.
type Exporter struct {
	reader   *sdkmetric.ManualReader
	provider *sdkmetric.MeterProvider
}

func NewExporter() *Exporter {
	reader := sdkmetric.NewManualReader()
	return &Exporter{
		reader:   reader,
		provider: sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
	}
}

func (e *Exporter) MeterProvider() metric.MeterProvider { return e.provider }

// Collect returns the current cumulative data.
func (e *Exporter) Collect(ctx context.Context) (metricdata.ResourceMetrics, error) {
	var rm metricdata.ResourceMetrics
	err := e.reader.Collect(ctx, &rm)
	return rm, err
}

func (e *Exporter) Shutdown(ctx context.Context) error { return e.provider.Shutdown(ctx) }

// WritePrometheus renders the collected int64 instruments in the Prometheus
// text format. Dots in instrument names become underscores and monotonic
// sums get a _total suffix.
func (e *Exporter) WritePrometheus(ctx context.Context, w io.Writer) error {
	rm, err := e.Collect(ctx)
	if err != nil {
		return err
	}
	var ms []metricdata.Metrics
	for _, sm := range rm.ScopeMetrics {
		ms = append(ms, sm.Metrics...)
	}
	sort.Slice(ms, func(i, j int) bool { return ms[i].Name < ms[j].Name })

	for _, m := range ms {
		name := promName(m.Name)
		switch d := m.Data.(type) {
		case metricdata.Sum[int64]:
			typ := "gauge"
			if d.IsMonotonic {
				name += "_total"
				typ = "counter"
			}
			header(w, name, m.Description, typ)
			lines := make([]string, 0, len(d.DataPoints))
			for _, dp := range d.DataPoints {
				lines = append(lines, fmt.Sprintf("%s%s %d", name, labels(dp.Attributes), dp.Value))
			}
			writeSorted(w, lines)
		case metricdata.Gauge[int64]:
			header(w, name, m.Description, "gauge")
			lines := make([]string, 0, len(d.DataPoints))
			for _, dp := range d.DataPoints {
				lines = append(lines, fmt.Sprintf("%s%s %d", name, labels(dp.Attributes), dp.Value))
			}
			writeSorted(w, lines)
		case metricdata.Histogram[int64]:
			header(w, name, m.Description, "histogram")
			for _, dp := range d.DataPoints {
				var cum uint64
				for i, n := range dp.BucketCounts {
					cum += n
					le := "+Inf"
					if i < len(dp.Bounds) {
						le = strconv.FormatFloat(dp.Bounds[i], 'g', -1, 64)
					}
					fmt.Fprintf(w, "%s_bucket%s %d\n", name, labels(dp.Attributes, attribute.String("le", le)), cum)
				}
				fmt.Fprintf(w, "%s_sum%s %d\n", name, labels(dp.Attributes), dp.Sum)
				fmt.Fprintf(w, "%s_count%s %d\n", name, labels(dp.Attributes), dp.Count)
			}
		}
	}
	return nil
}

func promName(s string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(s)
}

func header(w io.Writer, name, help, typ string) {
	if help != "" {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	}
	fmt.Fprintf(w, "# TYPE %s %s\n", name, typ)
}

func labels(set attribute.Set, extra ...attribute.KeyValue) string {
	kvs := append(set.ToSlice(), extra...)
	if len(kvs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(kvs))
	for _, kv := range kvs {
		parts = append(parts, fmt.Sprintf("%s=%q", promName(string(kv.Key)), kv.Value.Emit()))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func writeSorted(w io.Writer, lines []string) {
	sort.Strings(lines)
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
}
