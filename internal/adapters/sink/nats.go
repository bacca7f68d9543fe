package sink

import (
	"context"
	"encoding/json"

	"github.com/bloodyt3ars/neural-interfaces/internal/domain/model"
	"github.com/bloodyt3ars/neural-interfaces/pkg/logger"
	"github.com/bloodyt3ars/neural-interfaces/pkg/metrics"
)

const natsSink = "nats"

// Publisher is the subset of *nats.Conn the NATS sink needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher publishes JSON messages to <prefix>.events.<kind> and
// <prefix>.rhythm. Publishing is fire-and-forget; failures are logged and
// counted.
type NATSPublisher struct {
	pub    Publisher
	prefix string
	log    logger.Logger
}

func NewNATSPublisher(pub Publisher, prefix string, l logger.Logger) *NATSPublisher {
	return &NATSPublisher{pub: pub, prefix: prefix, log: l}
}

func (p *NATSPublisher) OnDetectionEvent(ev model.DetectionEvent) {
	p.publish(p.prefix+".events."+ev.Kind.String(), newEventMessage(ev))
}

func (p *NATSPublisher) OnRhythmReading(r model.RhythmReading) {
	p.publish(p.prefix+".rhythm", newRhythmMessage(r))
}

func (p *NATSPublisher) publish(subject string, v any) {
	b, err := json.Marshal(v)
	if err == nil {
		err = p.pub.Publish(subject, b)
	}
	if err != nil {
		metrics.RecordSinkError(natsSink)
		p.log.Warn(context.Background(), "publish failed", logger.String("subject", subject), logger.Error(err))
		return
	}
	metrics.RecordSinkPublished(natsSink)
}
