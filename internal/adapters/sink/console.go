package sink

import (
	"context"
	"fmt"
	"strings"

	"github.com/bloodyt3ars/neural-interfaces/internal/domain/model"
	"github.com/bloodyt3ars/neural-interfaces/pkg/logger"
)

// Console reports events and readings as human-readable log lines.
type Console struct {
	log logger.Logger
}

func NewConsole(l logger.Logger) *Console {
	return &Console{log: l}
}

func (c *Console) OnDetectionEvent(ev model.DetectionEvent) {
	c.log.Info(context.Background(), fmt.Sprintf("[%s] %.2f sec", strings.ToUpper(ev.Kind.String()), ev.Timestamp))
}

func (c *Console) OnRhythmReading(r model.RhythmReading) {
	c.log.Info(context.Background(), fmt.Sprintf("[RHYTHM] α: %.2f, β: %.2f, α/β: %.2f", r.AlphaPower, r.BetaPower, r.Ratio))
}
