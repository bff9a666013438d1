// Package telemetry records build metrics as OTel instruments. The server
// backs them with an SDK provider (see Exporter); New alone uses the global
// provider, a no-op unless one is installed.
package telemetry

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"coastercraft.ai/internal/sim/blocks"
	"coastercraft.ai/internal/sim/world/terrain/store"
	"coastercraft.ai/internal/track"
)

type Recorder struct {
	blocks metric.Int64Counter
	rails  metric.Int64Counter
	builds metric.Int64Counter
	length metric.Int64Histogram

	observers metric.Int64ObservableGauge

	totals struct {
		blocks, builds, failed atomic.Int64
		length, powered        atomic.Int64
	}
}

// Totals is a process-lifetime summary of what the recorder has seen.
type Totals struct {
	BlocksChanged     int64 `json:"blocks_changed"`
	Builds            int64 `json:"builds"`
	FailedBuilds      int64 `json:"failed_builds"`
	TotalLength       int64 `json:"total_length"`
	TotalPoweredRails int64 `json:"total_powered_rails"`
}

// New registers the instruments. sessions, if set, is polled for the
// observer session gauge.
func New(sessions func() int) (*Recorder, error) {
	return newWithMeter(meter(), sessions)
}

// NewWithProvider is New against an explicit provider.
func NewWithProvider(mp metric.MeterProvider, sessions func() int) (*Recorder, error) {
	return newWithMeter(mp.Meter(instrumentationName), sessions)
}

func newWithMeter(m metric.Meter, sessions func() int) (*Recorder, error) {
	r := &Recorder{}
	var err error

	r.blocks, err = m.Int64Counter(
		"coaster.blocks.changed",
		metric.WithDescription("Block cells changed by builds"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating blocks counter: %w", err)
	}
	r.rails, err = m.Int64Counter(
		"coaster.rails.placed",
		metric.WithDescription("Rails placed, by kind"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating rails counter: %w", err)
	}
	r.builds, err = m.Int64Counter(
		"coaster.builds",
		metric.WithDescription("Finished builds, by result"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating builds counter: %w", err)
	}
	r.length, err = m.Int64Histogram(
		"coaster.build.track_length",
		metric.WithDescription("Track length of a finished build"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating length histogram: %w", err)
	}

	if sessions != nil {
		r.observers, err = m.Int64ObservableGauge(
			"coaster.observer.sessions",
			metric.WithDescription("Connected observer websockets"),
		)
		if err != nil {
			return nil, fmt.Errorf("creating sessions gauge: %w", err)
		}
		_, err = m.RegisterCallback(
			func(ctx context.Context, o metric.Observer) error {
				o.ObserveInt64(r.observers, int64(sessions()))
				return nil
			},
			r.observers,
		)
		if err != nil {
			return nil, fmt.Errorf("registering sessions callback: %w", err)
		}
	}
	return r, nil
}

// OnChange is a store listener.
func (r *Recorder) OnChange(c store.Change) {
	ctx := context.Background()
	r.totals.blocks.Add(1)
	r.blocks.Add(ctx, 1, metric.WithAttributes(attribute.String("family", c.To.Family().String())))
	if c.To == blocks.Rail || c.To == blocks.PoweredRail {
		r.rails.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(c.To))))
	}
}

func (r *Recorder) BuildDone(stats track.Stats, err error) {
	result := "ok"
	if err != nil {
		result = "error"
		r.totals.failed.Add(1)
	}
	r.totals.builds.Add(1)
	r.totals.length.Add(int64(stats.TotalLength))
	r.totals.powered.Add(int64(stats.TotalPoweredRails))

	ctx := context.Background()
	r.builds.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	r.length.Record(ctx, int64(stats.TotalLength))
}

func (r *Recorder) Totals() Totals {
	return Totals{
		BlocksChanged:     r.totals.blocks.Load(),
		Builds:            r.totals.builds.Load(),
		FailedBuilds:      r.totals.failed.Load(),
		TotalLength:       r.totals.length.Load(),
		TotalPoweredRails: r.totals.powered.Load(),
	}
}
