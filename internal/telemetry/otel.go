package telemetry

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "coastercraft.ai/internal/telemetry"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
