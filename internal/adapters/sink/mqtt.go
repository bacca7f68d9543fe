package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/eclipse/paho.golang/paho"

	"github.com/bloodyt3ars/neural-interfaces/internal/domain/model"
	"github.com/bloodyt3ars/neural-interfaces/pkg/logger"
	"github.com/bloodyt3ars/neural-interfaces/pkg/metrics"
)

const (
	mqttSink           = "mqtt"
	mqttPublishTimeout = 5 * time.Second
)

// MQTTClient is the subset of *paho.Client the MQTT sink needs.
type MQTTClient interface {
	Publish(ctx context.Context, p *paho.Publish) (*paho.PublishResponse, error)
	Disconnect(d *paho.Disconnect) error
}

// DialMQTT connects to broker, given as host:port or tcp://host:port.
func DialMQTT(ctx context.Context, broker, clientID string) (*paho.Client, error) {
	addr := broker
	if u, err := url.Parse(broker); err == nil && u.Host != "" {
		addr = u.Host
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDial, addr, err)
	}

	c := paho.NewClient(paho.ClientConfig{
		ClientID: clientID,
		Conn:     conn,
	})
	if _, err := c.Connect(ctx, &paho.Connect{
		ClientID:   clientID,
		CleanStart: true,
		KeepAlive:  30,
	}); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: connect %s: %w", ErrDial, addr, err)
	}
	return c, nil
}

type mqttMessage struct {
	topic   string
	payload []byte
}

// MQTTPublisher publishes the same payloads as NATSPublisher to
// <prefix>/events/<kind> and <prefix>/rhythm. Notifications are handed to a
// single sender goroutine through a bounded buffer and dropped when it is
// full, so a slow broker never stalls detection.
type MQTTPublisher struct {
	client MQTTClient
	prefix string
	log    logger.Logger

	mu     sync.Mutex
	closed bool
	out    chan mqttMessage
	done   chan struct{}
}

func NewMQTTPublisher(client MQTTClient, prefix string, buffer int, l logger.Logger) *MQTTPublisher {
	p := &MQTTPublisher{
		client: client,
		prefix: prefix,
		log:    l,
		out:    make(chan mqttMessage, max(buffer, 1)),
		done:   make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *MQTTPublisher) OnDetectionEvent(ev model.DetectionEvent) {
	p.enqueue(p.prefix+"/events/"+ev.Kind.String(), newEventMessage(ev))
}

func (p *MQTTPublisher) OnRhythmReading(r model.RhythmReading) {
	p.enqueue(p.prefix+"/rhythm", newRhythmMessage(r))
}

func (p *MQTTPublisher) enqueue(topic string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		metrics.RecordSinkError(mqttSink)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		metrics.RecordSinkDropped(mqttSink)
		return
	}
	select {
	case p.out <- mqttMessage{topic: topic, payload: b}:
	default:
		metrics.RecordSinkDropped(mqttSink)
	}
}

func (p *MQTTPublisher) run() {
	defer close(p.done)
	for m := range p.out {
		ctx, cancel := context.WithTimeout(context.Background(), mqttPublishTimeout)
		_, err := p.client.Publish(ctx, &paho.Publish{
			QoS:     0,
			Topic:   m.topic,
			Payload: m.payload,
		})
		cancel()
		if err != nil {
			metrics.RecordSinkError(mqttSink)
			p.log.Warn(context.Background(), "publish failed", logger.String("topic", m.topic), logger.Error(err))
			continue
		}
		metrics.RecordSinkPublished(mqttSink)
	}
}

// Close flushes queued messages, or gives up when ctx ends, then
// disconnects the client.
func (p *MQTTPublisher) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.closed = true
	close(p.out)
	p.mu.Unlock()

	select {
	case <-p.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return p.client.Disconnect(&paho.Disconnect{ReasonCode: 0})
}
