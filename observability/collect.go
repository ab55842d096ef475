package observability

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// Point is one collected measurement series.
type Point struct {
	Name  string
	Attrs string // "k=v,k=v", sorted by key
	// Value is the running sum for counters and the sum of observations
	// for histograms.
	Value float64
	// Count is the number of observations for histograms, 0 for counters.
	Count uint64
}

// Collect reads the current values from reader. Points are ordered by name
// then attributes.
func Collect(ctx context.Context, reader *sdkmetric.ManualReader) ([]Point, error) {
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		return nil, fmt.Errorf("observability: collect: %w", err)
	}

	var points []Point
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[float64]:
				for _, dp := range data.DataPoints {
					points = append(points, Point{Name: m.Name, Attrs: formatAttrs(dp.Attributes), Value: dp.Value})
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					points = append(points, Point{Name: m.Name, Attrs: formatAttrs(dp.Attributes), Value: dp.Sum, Count: dp.Count})
				}
			}
		}
	}

	slices.SortFunc(points, func(a, b Point) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.Attrs, b.Attrs)
	})
	return points, nil
}

func formatAttrs(set attribute.Set) string {
	parts := make([]string, 0, set.Len())
	iter := set.Iter()
	for iter.Next() {
		kv := iter.Attribute()
		parts = append(parts, string(kv.Key)+"="+kv.Value.Emit())
	}
	return strings.Join(parts, ",")
}
