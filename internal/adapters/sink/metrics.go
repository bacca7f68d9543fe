package sink

import (
	"github.com/bloodyt3ars/neural-interfaces/internal/domain/model"
	"github.com/bloodyt3ars/neural-interfaces/pkg/metrics"
)

// Metrics records every notification in the global Prometheus registry.
type Metrics struct{}

func (Metrics) OnDetectionEvent(ev model.DetectionEvent) {
	metrics.RecordDetectionEvent(ev.Kind.String())
}

func (Metrics) OnRhythmReading(r model.RhythmReading) {
	metrics.RecordRhythmReading(r.AlphaPower, r.BetaPower, r.Ratio)
}
