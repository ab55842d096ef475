package observability

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics. attrs are fixed on the returned
// instrument and attached to every measurement it records.
type MetricFactory interface {
	Counter(name string, attrs ...attribute.KeyValue) Counter
	Histogram(name string, attrs ...attribute.KeyValue) Histogram
}

// ErrNilMeter indicates that a nil OTEL meter was provided.
var ErrNilMeter = errors.New("observability: metric meter cannot be nil")

// OTelFactory is a MetricFactory backed by an OpenTelemetry meter.
// Instruments are created once per name and shared between attribute sets.
type OTelFactory struct {
	meter      metric.Meter
	counters   sync.Map // string -> metric.Float64Counter
	histograms sync.Map // string -> metric.Float64Histogram

	mu   sync.Mutex
	errs []error
}

// NewOTelFactory creates a factory over meter.
func NewOTelFactory(meter metric.Meter) (*OTelFactory, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	return &OTelFactory{meter: meter}, nil
}

// NewNopFactory returns a factory backed by OpenTelemetry's no-op meter.
func NewNopFactory() *OTelFactory {
	return &OTelFactory{meter: noop.NewMeterProvider().Meter("nop")}
}

// Err returns the instrument creation failures seen so far. Failed
// instruments fall back to no-ops.
func (f *OTelFactory) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return errors.Join(f.errs...)
}

func (f *OTelFactory) record(err error) {
	f.mu.Lock()
	f.errs = append(f.errs, err)
	f.mu.Unlock()
}

// Counter implements MetricFactory.
func (f *OTelFactory) Counter(name string, attrs ...attribute.KeyValue) Counter {
	c, err := f.getOrCreateCounter(name)
	if err != nil {
		f.record(err)
		c = noop.Float64Counter{}
	}
	return &otelCounter{counter: c, opt: metric.WithAttributeSet(attribute.NewSet(attrs...))}
}

// Histogram implements MetricFactory.
func (f *OTelFactory) Histogram(name string, attrs ...attribute.KeyValue) Histogram {
	h, err := f.getOrCreateHistogram(name)
	if err != nil {
		f.record(err)
		h = noop.Float64Histogram{}
	}
	return &otelHistogram{histogram: h, opt: metric.WithAttributeSet(attribute.NewSet(attrs...))}
}

func (f *OTelFactory) getOrCreateCounter(name string) (metric.Float64Counter, error) {
	if v, ok := f.counters.Load(name); ok {
		return v.(metric.Float64Counter), nil //nolint:forcetypeassert // only Float64Counter is stored
	}

	c, err := f.meter.Float64Counter(name)
	if err != nil {
		return nil, fmt.Errorf("observability: create counter %q: %w", name, err)
	}

	actual, _ := f.counters.LoadOrStore(name, c)
	return actual.(metric.Float64Counter), nil //nolint:forcetypeassert // only Float64Counter is stored
}

func (f *OTelFactory) getOrCreateHistogram(name string) (metric.Float64Histogram, error) {
	if v, ok := f.histograms.Load(name); ok {
		return v.(metric.Float64Histogram), nil //nolint:forcetypeassert // only Float64Histogram is stored
	}

	h, err := f.meter.Float64Histogram(name)
	if err != nil {
		return nil, fmt.Errorf("observability: create histogram %q: %w", name, err)
	}

	actual, _ := f.histograms.LoadOrStore(name, h)
	return actual.(metric.Float64Histogram), nil //nolint:forcetypeassert // only Float64Histogram is stored
}

type otelCounter struct {
	counter metric.Float64Counter
	opt     metric.MeasurementOption
}

func (c *otelCounter) Inc() { c.Add(1) }

func (c *otelCounter) Add(v float64) {
	c.counter.Add(context.Background(), v, c.opt)
}

type otelHistogram struct {
	histogram metric.Float64Histogram
	opt       metric.MeasurementOption
}

func (h *otelHistogram) Observe(v float64) {
	h.histogram.Record(context.Background(), v, h.opt)
}
