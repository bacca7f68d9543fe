package main

import (
	"context"
	"fmt"
	"time"

	"github.com/bloodyt3ars/neural-interfaces/internal/adapters/sink"
	"github.com/bloodyt3ars/neural-interfaces/internal/adapters/source"
	app "github.com/bloodyt3ars/neural-interfaces/internal/app"
	"github.com/bloodyt3ars/neural-interfaces/internal/config"
	"github.com/bloodyt3ars/neural-interfaces/internal/domain/detector"
	"github.com/bloodyt3ars/neural-interfaces/internal/domain/filter"
	"github.com/bloodyt3ars/neural-interfaces/internal/domain/model"
	"github.com/bloodyt3ars/neural-interfaces/internal/domain/pipeline"
	"github.com/bloodyt3ars/neural-interfaces/internal/domain/rhythm"
	"github.com/bloodyt3ars/neural-interfaces/internal/eegsim"
	"github.com/bloodyt3ars/neural-interfaces/pkg/logger"
)

const (
	clientName       = "neural-interfaces"
	mqttBufferSize   = 256
	natsSourceBuffer = 1024
)

// closer releases an outbound connection at shutdown.
type closer func(ctx context.Context) error

func filterSpec(cfg *config.Config) filter.Spec {
	return filter.Spec{Cutoff: cfg.FilterCutoff, SampleRate: cfg.SampleRate, Order: cfg.FilterOrder}
}

func blinkConfig(cfg *config.Config) detector.Config {
	c := detector.BlinkConfig(cfg.SampleRate)
	c.ThresholdMin, c.ThresholdMax = cfg.BlinkThresholdMin, cfg.BlinkThresholdMax
	c.Debounce = cfg.BlinkDebounce
	c.Channels = append([]int(nil), cfg.BlinkChannels...)
	c.Filter = filterSpec(cfg)
	return c
}

func clenchConfig(cfg *config.Config) detector.Config {
	c := detector.ClenchConfig(cfg.SampleRate)
	c.ThresholdMin, c.ThresholdMax = cfg.ClenchThresholdMin, cfg.ClenchThresholdMax
	c.Debounce = cfg.ClenchDebounce
	c.Channels = append([]int(nil), cfg.ClenchChannels...)
	c.Filter = filterSpec(cfg)
	return c
}

func rhythmConfig(cfg *config.Config) rhythm.Config {
	c := rhythm.DefaultConfig(cfg.SampleRate)
	c.Channel = cfg.RhythmChannel
	c.FFTLength = cfg.FFTLength
	c.Alpha = model.RhythmBand{Name: "alpha", Low: cfg.AlphaLow, High: cfg.AlphaHigh}
	c.Beta = model.RhythmBand{Name: "beta", Low: cfg.BetaLow, High: cfg.BetaHigh}
	return c
}

func simConfig(cfg *config.Config) eegsim.Config {
	c := eegsim.DefaultConfig(cfg.SampleRate)
	c.Channels = cfg.ChannelCount
	c.RhythmChannel = cfg.RhythmChannel
	c.Seed = cfg.Seed
	c.BlinkEvery = cfg.BlinkEvery
	c.ClenchEvery = cfg.ClenchEvery
	return c
}

// buildPipeline constructs both detectors and the analyzer around l.
func buildPipeline(cfg *config.Config, l model.Listener) (*pipeline.Pipeline, error) {
	blink, err := detector.New(blinkConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("blink detector: %w", err)
	}
	clench, err := detector.New(clenchConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("clench detector: %w", err)
	}
	analyzer, err := rhythm.New(rhythmConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("rhythm analyzer: %w", err)
	}
	return pipeline.New(l, analyzer, blink, clench)
}

// buildSource opens the configured sample source.
func buildSource(cfg *config.Config) (source.Source, error) {
	switch cfg.Source {
	case config.SourceEDF:
		return source.OpenEDF(cfg.EDFPath, cfg.ChannelCount, cfg.SampleRate, cfg.BlockSize, cfg.Realtime)
	case config.SourceNATS:
		nc, err := source.Connect(cfg.NATSURL, clientName)
		if err != nil {
			return nil, fmt.Errorf("%w: nats %s: %w", source.ErrOpen, cfg.NATSURL, err)
		}
		src, err := source.NewNATS(nc, cfg.NATSSubject, cfg.ChannelCount, cfg.SampleRate, natsSourceBuffer)
		if err != nil {
			nc.Close()
			return nil, err
		}
		return src, nil
	default:
		return source.NewSynthetic(simConfig(cfg), cfg.BlockSize, cfg.Realtime), nil
	}
}

// buildListeners assembles the listener chain. The tracker is always first so
// the HTTP API sees every notification.
func buildListeners(ctx context.Context, cfg *config.Config, log logger.Logger) (sink.Multi, *sink.Tracker, []closer, error) {
	tracker := sink.NewTracker()
	listeners := sink.Multi{tracker, sink.Metrics{}}
	var closers []closer

	if cfg.ConsoleOutput {
		listeners = append(listeners, sink.NewConsole(log.Named("console")))
	}
	if cfg.PublishNATSURL != "" {
		nc, err := source.Connect(cfg.PublishNATSURL, clientName+"-publisher")
		if err != nil {
			return nil, nil, nil, fmt.Errorf("%w: nats %s: %w", sink.ErrDial, cfg.PublishNATSURL, err)
		}
		listeners = append(listeners, sink.NewNATSPublisher(nc, cfg.PublishNATSPrefix, log.Named("nats")))
		closers = append(closers, func(context.Context) error { return nc.Drain() })
	}
	if cfg.MQTTBroker != "" {
		client, err := sink.DialMQTT(ctx, cfg.MQTTBroker, cfg.MQTTClientID)
		if err != nil {
			closeAll(ctx, closers, log)
			return nil, nil, nil, err
		}
		p := sink.NewMQTTPublisher(client, cfg.MQTTTopicPrefix, mqttBufferSize, log.Named("mqtt"))
		listeners = append(listeners, p)
		closers = append(closers, p.Close)
	}
	return listeners, tracker, closers, nil
}

func closeAll(ctx context.Context, closers []closer, log logger.Logger) {
	for _, c := range closers {
		if err := c(ctx); err != nil {
			log.Warn(ctx, "closing listener", logger.Error(err))
		}
	}
}

// buildService wires source, pipeline and listeners into a service.
func buildService(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.Service, *sink.Tracker, []closer, error) {
	listeners, tracker, closers, err := buildListeners(ctx, cfg, log)
	if err != nil {
		return nil, nil, nil, err
	}
	p, err := buildPipeline(cfg, listeners)
	if err != nil {
		closeAll(ctx, closers, log)
		return nil, nil, nil, err
	}
	src, err := buildSource(cfg)
	if err != nil {
		closeAll(ctx, closers, log)
		return nil, nil, nil, err
	}

	svc := app.New(
		app.WithLogger(log.Named("service")),
		app.WithQueueSize(cfg.QueueSize),
		app.WithSource(src),
		app.WithPipeline(p),
		app.WithDuration(time.Duration(cfg.DurationSeconds*float64(time.Second))),
		app.WithPullInterval(time.Duration(cfg.PollMS)*time.Millisecond),
	)
	return svc, tracker, closers, nil
}
