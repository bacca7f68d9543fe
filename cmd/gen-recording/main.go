// Command gen-recording produces simulated EEG sessions with blink and clench
// artifacts, either as an EDF file for the edf source or as a live stream of
// binary frames on NATS for the nats source.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/bloodyt3ars/neural-interfaces/internal/adapters/source"
	"github.com/bloodyt3ars/neural-interfaces/internal/eegsim"
	"github.com/bloodyt3ars/neural-interfaces/internal/recording"
	"github.com/bloodyt3ars/neural-interfaces/pkg/logger"
)

const (
	defaultSeconds   = 60
	defaultRate      = 125
	defaultBlockSize = 25
)

func main() {
	var (
		out        = flag.String("out", "", "Write an EDF recording to this path")
		seconds    = flag.Int("seconds", defaultSeconds, "Recording length in seconds; 0 streams until interrupted")
		rate       = flag.Float64("rate", defaultRate, "Sampling rate in Hz")
		seed       = flag.Int64("seed", 1, "Noise seed")
		blinkEvery = flag.Float64("blink-every", 2.5, "Seconds between blinks, 0 disables")
		clench     = flag.Float64("clench-every", 7, "Seconds between clenches, 0 disables")
		natsURL    = flag.String("nats", "", "Publish frames to this NATS server instead of writing a file")
		subject    = flag.String("subject", "eeg.samples", "NATS subject for published frames")
		block      = flag.Int("block", defaultBlockSize, "Samples per published frame")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get().Named("gen-recording")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := eegsim.DefaultConfig(*rate)
	cfg.Seed = *seed
	cfg.BlinkEvery = *blinkEvery
	cfg.ClenchEvery = *clench
	sim := eegsim.New(cfg)

	var err error
	switch {
	case *natsURL != "":
		err = stream(ctx, sim, *natsURL, *subject, *block, *seconds, log)
	case *out != "":
		err = write(sim, *out, *seconds, log)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Error(ctx, "generation failed", logger.Error(err))
		os.Exit(1)
	}
}

func write(sim *eegsim.Sim, path string, seconds int, log logger.Logger) error {
	if seconds <= 0 {
		return fmt.Errorf("an EDF recording needs a positive length, got %d seconds", seconds)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	info, err := recording.Write(f, sim, seconds, time.Now())
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	log.Info(context.Background(), "recording written",
		logger.String("path", path),
		logger.String("recording_id", info.RecordingID),
		logger.Int("records", info.Records),
		logger.Int("samples", info.Samples),
	)
	return nil
}

// stream publishes frames paced to the simulator's sampling rate.
func stream(ctx context.Context, sim *eegsim.Sim, url, subject string, block, seconds int, log logger.Logger) error {
	nc, err := source.Connect(url, "gen-recording")
	if err != nil {
		return err
	}
	defer func() { _ = nc.Drain() }()

	block = max(block, 1)
	fs := sim.Config().SampleRate
	limit := int(float64(seconds) * fs)
	interval := time.Duration(float64(block) / fs * float64(time.Second))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	log.Info(ctx, "streaming", logger.String("subject", subject), logger.Duration("interval", interval))

	for limit <= 0 || sim.Position() < limit {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		if err := publish(nc, subject, sim, block); err != nil {
			return err
		}
	}
	return nil
}

func publish(nc *nats.Conn, subject string, sim *eegsim.Sim, n int) error {
	return nc.Publish(subject, source.EncodeFrame(sim.Block(n).Samples))
}
