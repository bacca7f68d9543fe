package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bloodyt3ars/neural-interfaces/internal/adapters/http/api"
	"github.com/bloodyt3ars/neural-interfaces/internal/adapters/http/swagger"
	"github.com/bloodyt3ars/neural-interfaces/internal/adapters/source"
	"github.com/bloodyt3ars/neural-interfaces/internal/config"
	"github.com/bloodyt3ars/neural-interfaces/internal/domain/model"
	"github.com/bloodyt3ars/neural-interfaces/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestComponentConfigs(t *testing.T) {
	convey.Convey("Given a customized config", t, func() {
		cfg := config.New()
		cfg.SampleRate = 250
		cfg.FilterCutoff = 15
		cfg.BlinkThresholdMin = 40
		cfg.BlinkChannels = []int{1}
		cfg.ClenchDebounce = 0.8
		cfg.RhythmChannel = 6
		cfg.AlphaLow = 7.5
		cfg.Seed = 42

		convey.Convey("Then every component receives its settings", func() {
			blink := blinkConfig(cfg)
			convey.So(blink.Kind, convey.ShouldEqual, model.Blink)
			convey.So(blink.ThresholdMin, convey.ShouldEqual, 40)
			convey.So(blink.Channels, convey.ShouldResemble, []int{1})
			convey.So(blink.SampleRate, convey.ShouldEqual, 250)
			convey.So(blink.Filter.Cutoff, convey.ShouldEqual, 15)

			clench := clenchConfig(cfg)
			convey.So(clench.Kind, convey.ShouldEqual, model.Clench)
			convey.So(clench.Debounce, convey.ShouldEqual, 0.8)
			convey.So(clench.Channels, convey.ShouldResemble, []int{3, 4})

			rc := rhythmConfig(cfg)
			convey.So(rc.Channel, convey.ShouldEqual, 6)
			convey.So(rc.Alpha.Low, convey.ShouldEqual, 7.5)
			convey.So(rc.Beta.High, convey.ShouldEqual, 30)

			sc := simConfig(cfg)
			convey.So(sc.Seed, convey.ShouldEqual, 42)
			convey.So(sc.RhythmChannel, convey.ShouldEqual, 6)
			convey.So(sc.Channels, convey.ShouldEqual, 8)
		})

		convey.Convey("Then detector configs do not alias the config's channel lists", func() {
			blink := blinkConfig(cfg)
			blink.Channels[0] = 7
			convey.So(cfg.BlinkChannels, convey.ShouldResemble, []int{1})
		})
	})
}

func TestBuildSource(t *testing.T) {
	convey.Convey("Given the default config", t, func() {
		cfg := config.New()

		convey.Convey("Then the synthetic source is used", func() {
			src, err := buildSource(cfg)
			convey.So(err, convey.ShouldBeNil)
			convey.So(src.Name(), convey.ShouldEqual, "synthetic")
		})

		convey.Convey("When the EDF file is missing", func() {
			cfg.Source = config.SourceEDF
			cfg.EDFPath = "/does/not/exist.edf"
			_, err := buildSource(cfg)

			convey.Convey("Then opening fails", func() {
				convey.So(errors.Is(err, source.ErrOpen), convey.ShouldBeTrue)
			})
		})
	})
}

func TestBuildService(t *testing.T) {
	convey.Convey("Given a non-realtime synthetic config with a short run", t, func() {
		cfg := config.New()
		cfg.Realtime = false
		cfg.ConsoleOutput = false
		cfg.DurationSeconds = 0.2
		cfg.QueueSize = 8
		ctx := context.Background()

		svc, tracker, closers, err := buildService(ctx, cfg, logger.Get())
		convey.So(err, convey.ShouldBeNil)
		convey.So(closers, convey.ShouldBeEmpty)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		convey.Convey("When the run completes", func() {
			select {
			case <-svc.Done():
			case <-time.After(10 * time.Second):
			}

			convey.Convey("Then blocks were processed and the API reports them", func() {
				convey.So(svc.GetStats().Blocks, convey.ShouldBeGreaterThan, 0)

				mux := http.NewServeMux()
				swagger.Register(ctx, mux)
				api.NewServer(svc, tracker).Register(ctx, mux)

				for _, path := range []string{"/stats", "/healthz", "/openapi.yaml"} {
					w := httptest.NewRecorder()
					mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
					convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				}
			})
		})
	})

	convey.Convey("Given a config with an impossible filter", t, func() {
		cfg := config.New()
		cfg.FilterCutoff = 100

		convey.Convey("Then building fails with a configuration error", func() {
			_, _, _, err := buildService(context.Background(), cfg, logger.Get())
			convey.So(errors.Is(err, model.ErrConfiguration), convey.ShouldBeTrue)
		})
	})
}
